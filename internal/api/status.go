package api

import (
	"net/http"
	"time"

	"github.com/nerrad567/climate-node/internal/node"
)

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	DeviceID      string        `json:"device_id"`
	Sensor        string        `json:"sensor"`
	WiFi          string        `json:"wifi"`
	MQTT          string        `json:"mqtt"`
	BusState      string        `json:"bus_state"`
	Connects      int           `json:"connects"`
	LastReading   *node.Reading `json:"last_reading,omitempty"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Timestamp     string        `json:"timestamp"`
}

// handleStatus reports the control and connectivity state.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.status.Status()
	now := s.now()

	writeJSON(w, http.StatusOK, StatusResponse{
		DeviceID:      s.deviceID,
		Sensor:        pick(st.Active, "active", "stopped"),
		WiFi:          pick(st.LinkUp, "connected", "disconnected"),
		MQTT:          pick(st.BusConnected, "connected", "disconnected"),
		BusState:      st.BusState,
		Connects:      st.Connects,
		LastReading:   st.LastReading,
		UptimeSeconds: int64(now.Sub(s.started) / time.Second),
		Timestamp:     now.UTC().Format(time.RFC3339),
	})
}

func pick(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
