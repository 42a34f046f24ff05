package transport_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rpggio/haulboard/internal/testserver"
	"github.com/stretchr/testify/require"
)

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func do(t *testing.T, ts *testserver.TestServer, method, path, contentType string, body io.Reader, sessionID string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.Server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.Token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func rpcCall(t *testing.T, ts *testserver.TestServer, sessionID, method string, params any) rpcResponse {
	t.Helper()

	payload := map[string]any{"jsonrpc": "2.0", "method": method, "id": 1}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp := do(t, ts, http.MethodPost, "/rpc", "application/json", bytes.NewBuffer(body), sessionID)
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(bodyBytes))
	}

	var result rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func call(t *testing.T, ts *testserver.TestServer, method string, params any, out any) {
	t.Helper()
	resp := rpcCall(t, ts, "", method, params)
	require.Nil(t, resp.Error, "RPC error: %+v", resp.Error)
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Result, out))
	}
}

func TestE2E_Authentication(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	resp, err := http.Post(ts.Server.URL+"/rpc", "application/json", bytes.NewBufferString(`{"jsonrpc":"2.0","method":"list_projects","id":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+"/tracker/export", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestE2E_ProjectsAndTrips(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	var created struct {
		ID          string `json:"id"`
		TotalPieces int64  `json:"total_pieces"`
		Trips       []struct {
			ID         string `json:"id"`
			TripNumber string `json:"trip_number"`
			Status     string `json:"status"`
		} `json:"trips"`
	}
	call(t, ts, "create_project", map[string]any{
		"name":        "Tiligul wind farm",
		"description": "Blades and towers from Chornomorsk",
		"trips": []map[string]any{
			{"destination": "Tiligul", "pieces": 3, "status": "delivered"},
			{"destination": "Tiligul", "pieces": 2},
		},
	}, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, int64(5), created.TotalPieces)
	require.Len(t, created.Trips, 2)
	require.Equal(t, "T-001", created.Trips[0].TripNumber)
	require.Equal(t, "T-002", created.Trips[1].TripNumber)
	require.Equal(t, "pending", created.Trips[1].Status)

	call(t, ts, "create_project", map[string]any{"name": "Harbour cranes"}, nil)

	var list []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	call(t, ts, "list_projects", nil, &list)
	require.Len(t, list, 2)
	require.Equal(t, "Harbour cranes", list[0].Name)

	var found []struct {
		ID string `json:"id"`
	}
	call(t, ts, "search_projects", map[string]any{"query": "CHORNOMORSK"}, &found)
	require.Len(t, found, 1)
	require.Equal(t, created.ID, found[0].ID)

	var trip struct {
		ID     string `json:"id"`
		Pieces int    `json:"pieces"`
	}
	call(t, ts, "add_trip", map[string]any{
		"project_id": created.ID,
		"trip":       map[string]any{"destination": "Tiligul", "pieces": 5, "status": "in-transit"},
	}, &trip)
	require.Equal(t, 5, trip.Pieces)

	var progress struct {
		TotalPieces     int64 `json:"total_pieces"`
		DeliveredPieces int64 `json:"delivered_pieces"`
		InTransitPieces int64 `json:"in_transit_pieces"`
		Percent         int   `json:"percent"`
	}
	call(t, ts, "get_project_progress", map[string]any{"id": created.ID}, &progress)
	require.Equal(t, int64(10), progress.TotalPieces)
	require.Equal(t, int64(3), progress.DeliveredPieces)
	require.Equal(t, int64(5), progress.InTransitPieces)
	require.Equal(t, 30, progress.Percent)

	call(t, ts, "update_trip", map[string]any{
		"project_id": created.ID,
		"trip_id":    trip.ID,
		"patch":      map[string]any{"status": "delivered"},
	}, nil)
	call(t, ts, "get_project_progress", map[string]any{"id": created.ID}, &progress)
	require.Equal(t, 80, progress.Percent)

	call(t, ts, "remove_trip", map[string]any{"project_id": created.ID, "trip_id": trip.ID}, nil)

	resp := rpcCall(t, ts, "", "remove_trip", map[string]any{"project_id": created.ID, "trip_id": trip.ID})
	require.NotNil(t, resp.Error)
	require.Equal(t, "TRIP_NOT_FOUND", resp.Error.Data["code"])

	var export struct {
		FileName string `json:"file_name"`
		Content  string `json:"content"`
	}
	call(t, ts, "export_trips_csv", map[string]any{"id": created.ID}, &export)
	require.Equal(t, "trips-"+created.ID+".csv", export.FileName)
	require.Equal(t, 3, strings.Count(export.Content, "\n")+1)

	var activity []struct {
		Type string `json:"type"`
	}
	call(t, ts, "get_recent_activity", map[string]any{"scope": created.ID}, &activity)
	require.NotEmpty(t, activity)
	require.Equal(t, "trip_removed", activity[0].Type)

	call(t, ts, "delete_project", map[string]any{"id": created.ID}, nil)
	resp = rpcCall(t, ts, "", "get_project", map[string]any{"id": created.ID})
	require.NotNil(t, resp.Error)
	require.Equal(t, "PROJECT_NOT_FOUND", resp.Error.Data["code"])
}

func TestE2E_TrackerBoard(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	var rows struct {
		Rows []struct {
			ID     string `json:"id"`
			Vessel string `json:"vessel"`
		} `json:"rows"`
		Count int `json:"count"`
	}
	call(t, ts, "tracker_list_rows", nil, &rows)
	require.Equal(t, 1, rows.Count)
	firstID := rows.Rows[0].ID

	resp := rpcCall(t, ts, "", "tracker_delete_row", map[string]any{"row_id": firstID})
	require.NotNil(t, resp.Error)
	require.Equal(t, "CONSTRAINT_VIOLATION", resp.Error.Data["code"])

	call(t, ts, "tracker_update_cell", map[string]any{
		"row_id": firstID,
		"cells":  map[string]string{"vessel": "MV \"Ocean\"", "actualArrivalSite": "2024-03-05"},
	}, nil)

	var added struct {
		ID string `json:"id"`
	}
	call(t, ts, "tracker_add_row", nil, &added)
	call(t, ts, "tracker_update_cell", map[string]any{"row_id": added.ID, "key": "damageConstanta", "value": "scratch"}, nil)

	var stats struct {
		Total   int `json:"total"`
		Arrived int `json:"arrived_at_site"`
		Damaged int `json:"damage_reports"`
	}
	call(t, ts, "tracker_stats", nil, &stats)
	require.Equal(t, 2, stats.Total)
	require.Equal(t, 1, stats.Arrived)
	require.Equal(t, 1, stats.Damaged)

	resp = rpcCall(t, ts, "", "tracker_update_cell", map[string]any{"row_id": firstID, "key": "colour", "value": "red"})
	require.NotNil(t, resp.Error)
	require.Equal(t, "INVALID_INPUT", resp.Error.Data["code"])

	// Download, then upload the same file: the board round-trips.
	download := do(t, ts, http.MethodGet, "/tracker/export", "", nil, "")
	require.Equal(t, http.StatusOK, download.StatusCode)
	require.Equal(t, "text/csv; charset=utf-8", download.Header.Get("Content-Type"))
	require.Contains(t, download.Header.Get("Content-Disposition"), "wind-turbine-tracking-")
	csv, err := io.ReadAll(download.Body)
	require.NoError(t, err)
	require.Contains(t, string(csv), `"MV ""Ocean"""`)

	upload := do(t, ts, http.MethodPost, "/tracker/import", "text/csv", bytes.NewReader(csv), "")
	require.Equal(t, http.StatusOK, upload.StatusCode)
	var imported struct {
		Imported int `json:"imported"`
	}
	require.NoError(t, json.NewDecoder(upload.Body).Decode(&imported))
	require.Equal(t, 2, imported.Imported)

	call(t, ts, "tracker_search", map[string]any{"query": "ocean"}, &rows)
	require.Equal(t, 1, rows.Count)
	require.Equal(t, `MV "Ocean"`, rows.Rows[0].Vessel)
	require.NotEqual(t, firstID, rows.Rows[0].ID)

	bad := do(t, ts, http.MethodPost, "/tracker/import", "text/csv", strings.NewReader("\"header\"\n\"unterminated"), "")
	require.Equal(t, http.StatusUnprocessableEntity, bad.StatusCode)

	call(t, ts, "tracker_list_rows", nil, &rows)
	require.Equal(t, 2, rows.Count)
}

func TestE2E_Navigation(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")

	var proj struct {
		ID string `json:"id"`
	}
	call(t, ts, "create_project", map[string]any{"name": "Tiligul"}, &proj)

	var v struct {
		SessionID string `json:"session_id"`
		Screen    string `json:"screen"`
	}
	resp := rpcCall(t, ts, "sess-1", "get_view", nil)
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &v))
	require.Equal(t, "sess-1", v.SessionID)
	require.Equal(t, "listing", v.Screen)

	resp = rpcCall(t, ts, "sess-1", "navigate", map[string]any{"event": "view", "project_id": proj.ID})
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, &v))
	require.Equal(t, "viewing("+proj.ID+")", v.Screen)

	resp = rpcCall(t, ts, "sess-1", "navigate", map[string]any{"event": "edit", "project_id": proj.ID})
	require.Nil(t, resp.Error)

	resp = rpcCall(t, ts, "sess-1", "navigate", map[string]any{"event": "track"})
	require.NotNil(t, resp.Error)
	require.Equal(t, "INVALID_TRANSITION", resp.Error.Data["code"])

	resp = rpcCall(t, ts, "sess-1", "get_view", nil)
	require.NoError(t, json.Unmarshal(resp.Result, &v))
	require.Equal(t, "editing("+proj.ID+")", v.Screen)

	resp = rpcCall(t, ts, "sess-2", "navigate", map[string]any{"event": "view", "project_id": "nope"})
	require.NotNil(t, resp.Error)
	require.Equal(t, "PROJECT_NOT_FOUND", resp.Error.Data["code"])

	resp = rpcCall(t, ts, "sess-1", "close_session", nil)
	require.Nil(t, resp.Error)

	resp = rpcCall(t, ts, "sess-1", "navigate", map[string]any{"event": "back"})
	require.NotNil(t, resp.Error)
	require.Equal(t, "SESSION_CLOSED", resp.Error.Data["code"])

	resp = rpcCall(t, ts, "never-opened", "close_session", nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, "SESSION_NOT_FOUND", resp.Error.Data["code"])
}

func TestE2E_TenantsAreIsolated(t *testing.T) {
	ts := testserver.New(t, "token", "tenant1")
	require.NoError(t, ts.AddAPIKey("other-token", "tenant2"))

	call(t, ts, "create_project", map[string]any{"name": "Mine"}, nil)

	other := *ts
	other.Token = "other-token"
	var list []struct {
		ID string `json:"id"`
	}
	call(t, &other, "list_projects", nil, &list)
	require.Empty(t, list)
}
