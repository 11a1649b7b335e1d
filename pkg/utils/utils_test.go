package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJSONAllowsEmptyBody(t *testing.T) {
	var dst struct {
		Choice *int `json:"choice"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	require.NoError(t, DecodeJSON(req, &dst))
	require.Nil(t, dst.Choice)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"choice":2}`))
	require.NoError(t, DecodeJSON(req, &dst))
	require.Equal(t, 2, *dst.Choice)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"choice":`))
	require.Error(t, DecodeJSON(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"colour":"red"}`))
	require.Error(t, DecodeJSON(req, &dst))
}

func TestSendSSEEventFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, SendSSEEvent(rec, rec, "7", "snapshot", map[string]string{"state": "WELCOME"}))
	require.Equal(t, "id: 7\nevent: snapshot\ndata: {\"state\":\"WELCOME\"}\n\n", rec.Body.String())
	require.True(t, rec.Flushed)
}

func TestRespondErrorWithSnapshot(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithSnapshot(rec, http.StatusConflict, "busy", map[string]string{"state": "LOADING"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `{"error":"busy","snapshot":{"state":"LOADING"}}`, rec.Body.String())
}
