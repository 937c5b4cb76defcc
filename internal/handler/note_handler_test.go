package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"note-service/internal/model"
	"note-service/pkg/config"
)

func newNoteHandler(f *fixture, consistency string) *NoteHandler {
	return NewNoteHandler(f.store, &config.QuotaConfig{
		FreeNoteLimit: 3,
		Consistency:   consistency,
	})
}

func TestCreateAndGetNoteRoundTrip(t *testing.T) {
	f := newFixture(t)
	h := newNoteHandler(f, config.QuotaBestEffort)
	e := echo.New()
	claims := f.claims(f.member, f.tenant)

	c, rec := newContext(e, http.MethodPost, "/notes", `{"title":"A","content":"B"}`, claims)
	require.NoError(t, h.CreateNote(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "A", created.Title)
	assert.Equal(t, "B", created.Content)
	// Tenant and user come from the claims, not the body.
	assert.Equal(t, f.tenant.ID, created.TenantID)
	assert.Equal(t, f.member.ID, created.UserID)

	c, rec = newContext(e, http.MethodGet, "/notes/"+fmt.Sprint(created.ID), "", claims)
	c.SetPath("/notes/:id")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(created.ID))
	require.NoError(t, h.GetNote(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, "B", got.Content)
}

func TestCreateNoteRequiresTitle(t *testing.T) {
	f := newFixture(t)
	h := newNoteHandler(f, config.QuotaBestEffort)
	e := echo.New()

	c, rec := newContext(e, http.MethodPost, "/notes", `{"content":"B"}`, f.claims(f.member, f.tenant))
	require.NoError(t, h.CreateNote(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateNoteIgnoresClientTenant(t *testing.T) {
	f := newFixture(t)
	h := newNoteHandler(f, config.QuotaBestEffort)
	e := echo.New()

	body := fmt.Sprintf(`{"title":"A","tenant_id":%d,"user_id":999}`, f.other.ID)
	c, rec := newContext(e, http.MethodPost, "/notes", body, f.claims(f.member, f.tenant))
	require.NoError(t, h.CreateNote(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, f.tenant.ID, created.TenantID)
	assert.Equal(t, f.member.ID, created.UserID)
}

func TestListNotesScopedToTenant(t *testing.T) {
	f := newFixture(t)
	h := newNoteHandler(f, config.QuotaBestEffort)
	e := echo.New()

	require.NoError(t, f.store.CreateNote(context.Background(), &model.Note{Title: "mine", TenantID: f.tenant.ID, UserID: f.member.ID}))
	require.NoError(t, f.store.CreateNote(context.Background(), &model.Note{Title: "theirs", TenantID: f.other.ID, UserID: 99}))

	c, rec := newContext(e, http.MethodGet, "/notes", "", f.claims(f.member, f.tenant))
	require.NoError(t, h.ListNotes(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var notes []model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, "mine", notes[0].Title)
}

func TestForeignTenantNoteIsNotFound(t *testing.T) {
	f := newFixture(t)
	h := newNoteHandler(f, config.QuotaBestEffort)
	e := echo.New()

	theirs := &model.Note{Title: "theirs", Content: "x", TenantID: f.other.ID, UserID: 99}
	require.NoError(t, f.store.CreateNote(context.Background(), theirs))
	claims := f.claims(f.member, f.tenant)
	id := fmt.Sprint(theirs.ID)

	run := func(method string, handler func(echo.Context) error, body string) {
		c, rec := newContext(e, method, "/notes/"+id, body, claims)
		c.SetPath("/notes/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
		require.NoError(t, handler(c))
		// Existing-in-another-tenant must look exactly like not existing.
		assert.Equal(t, http.StatusNotFound, rec.Code, method)
		assert.JSONEq(t, `{"error":"note not found"}`, rec.Body.String(), method)
	}

	run(http.MethodGet, h.GetNote, "")
	run(http.MethodPut, h.UpdateNote, `{"title":"hijack"}`)
	run(http.MethodDelete, h.DeleteNote, "")

	// Nothing was mutated through the foreign tenant.
	got, err := f.store.GetNote(context.Background(), theirs.ID, f.other.ID)
	require.NoError(t, err)
	assert.Equal(t, "theirs", got.Title)
}

func TestFreePlanQuota(t *testing.T) {
	for _, consistency := range []string{config.QuotaBestEffort, config.QuotaSerialized} {
		t.Run(consistency, func(t *testing.T) {
			f := newFixture(t)
			h := newNoteHandler(f, consistency)
			e := echo.New()
			claims := f.claims(f.member, f.tenant)

			for i := 0; i < 3; i++ {
				c, rec := newContext(e, http.MethodPost, "/notes", `{"title":"n"}`, claims)
				require.NoError(t, h.CreateNote(c))
				require.Equal(t, http.StatusCreated, rec.Code)
			}

			c, rec := newContext(e, http.MethodPost, "/notes", `{"title":"overflow"}`, claims)
			require.NoError(t, h.CreateNote(c))
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.JSONEq(t, `{"error":"free plan limit reached"}`, rec.Body.String())

			// Rejected create must leave the count unchanged.
			count, err := f.store.CountNotes(context.Background(), f.tenant.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)
		})
	}
}

func TestProPlanHasNoQuota(t *testing.T) {
	f := newFixture(t)
	h := newNoteHandler(f, config.QuotaBestEffort)
	e := echo.New()

	proUser := f.store.PutUser(model.User{Email: "pro@globex.test", Role: model.RoleMember, TenantID: f.other.ID})
	claims := f.claims(proUser, f.other)

	for i := 0; i < 5; i++ {
		c, rec := newContext(e, http.MethodPost, "/notes", `{"title":"n"}`, claims)
		require.NoError(t, h.CreateNote(c))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	count, err := f.store.CountNotes(context.Background(), f.other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestConcurrentCreatesSerializedNeverOvershoot(t *testing.T) {
	f := newFixture(t)
	h := newNoteHandler(f, config.QuotaSerialized)
	e := echo.New()
	claims := f.claims(f.member, f.tenant)

	require.NoError(t, f.store.CreateNote(context.Background(), &model.Note{Title: "n1", TenantID: f.tenant.ID, UserID: f.member.ID}))
	require.NoError(t, f.store.CreateNote(context.Background(), &model.Note{Title: "n2", TenantID: f.tenant.ID, UserID: f.member.ID}))

	var wg sync.WaitGroup
	codes := make([]int, 6)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, rec := newContext(e, http.MethodPost, "/notes", `{"title":"race"}`, claims)
			if err := h.CreateNote(c); err != nil {
				codes[i] = http.StatusInternalServerError
				return
			}
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusForbidden:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	assert.Equal(t, 1, created)

	count, err := f.store.CountNotes(context.Background(), f.tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUpdateNotePartialMerge(t *testing.T) {
	f := newFixture(t)
	h := newNoteHandler(f, config.QuotaBestEffort)
	e := echo.New()
	claims := f.claims(f.member, f.tenant)

	note := &model.Note{Title: "A", Content: "B", TenantID: f.tenant.ID, UserID: f.member.ID}
	require.NoError(t, f.store.CreateNote(context.Background(), note))
	id := fmt.Sprint(note.ID)

	update := func(body string) model.Note {
		c, rec := newContext(e, http.MethodPut, "/notes/"+id, body, claims)
		c.SetPath("/notes/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
		require.NoError(t, h.UpdateNote(c))
		require.Equal(t, http.StatusOK, rec.Code)
		var updated model.Note
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		return updated
	}

	// Content omitted: previous content survives.
	updated := update(`{"title":"X"}`)
	assert.Equal(t, "X", updated.Title)
	assert.Equal(t, "B", updated.Content)

	// Empty title falls back to the previous title instead of erroring.
	updated = update(`{"title":"","content":"C"}`)
	assert.Equal(t, "X", updated.Title)
	assert.Equal(t, "C", updated.Content)
}

func TestDeleteNote(t *testing.T) {
	f := newFixture(t)
	h := newNoteHandler(f, config.QuotaBestEffort)
	e := echo.New()
	claims := f.claims(f.member, f.tenant)

	note := &model.Note{Title: "A", TenantID: f.tenant.ID, UserID: f.member.ID}
	require.NoError(t, f.store.CreateNote(context.Background(), note))
	id := fmt.Sprint(note.ID)

	c, rec := newContext(e, http.MethodDelete, "/notes/"+id, "", claims)
	c.SetPath("/notes/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.DeleteNote(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	_, err := f.store.GetNote(context.Background(), note.ID, f.tenant.ID)
	assert.Error(t, err)
}
