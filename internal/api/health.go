package api

import (
	"fmt"
	"net/http"
	"runtime"
	"strconv"

	"realestate.dapp/redapp/internal/types"
)

// @Title: Get Health
// @Route: GET /api/health
// @Description: Returns server health status
// @Response: {"status": "ok"}
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// @Title: Get Version
// @Route: GET /api/version
// @Description: Returns the client version and build information
// @Response: {"version": "...", "build_time": "...", "go_ver": "...", "os_arch": "..."}
func (s *Service) HandleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version":    types.Version,
		"build_time": types.BuildTime,
		"go_ver":     runtime.Version(),
		"os_arch":    fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	})
}

// @Title: Get Session
// @Route: GET /api/session
// @Description: Returns the wallet session: connected account and in-flight transaction
// @Response: {"connected": true, "account": "0x...", "pending": ""}
func (s *Service) HandleSession(w http.ResponseWriter, r *http.Request) {
	st := s.state.Current()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"connected": st.Connected,
		"account":   st.Account,
		"pending":   st.Pending,
	})
}

// @Title: Get Notices
// @Route: GET /api/notices?limit=
// @Description: Returns recent user notices, newest first
// @Response: Array of notice objects
func (s *Service) HandleNotices(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	s.writeJSON(w, http.StatusOK, s.logger.GetRecent(limit))
}
