package provision

import (
	"fmt"
	"os/exec"
)

// NewHubController returns the controller for the hub's systemd unit.
func NewHubController(unit string) *HubController {
	return &HubController{unit: unit}
}

type HubController struct {
	unit string
}

// Restart restarts the hub so a new service registration takes effect.
func (h *HubController) Restart() error {
	cmd := exec.Command("systemctl", "restart", h.unit)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("restarting %s: %w: %s", h.unit, err, output)
	}
	return nil
}
