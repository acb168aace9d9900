/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Populates the agency with realistic data for demos and manual testing.

AVAILABLE SCENARIOS:
  sample-agency: two clients (John Doe, Jane Smith) and five bookings
                 B001..B005 covering every status; wallets start empty

HOW SCENARIOS WORK:
  0. Wait for in-flight requests to finish
  1. Reset the transaction store
  2. Swap in a fresh Coordinator
  3. Import the fixture as-is (no settlement debits)

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "sample-agency"}

NOTE:
  Scenarios wipe every client, booking and transaction. Only use in
  development/demo environments.

SEE ALSO:
  - lifecycle/sample.go: Fixture data
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/warp/agency-ledger/agency"
	"github.com/warp/agency-ledger/lifecycle"
	"go.uber.org/zap"
)

// ScenarioSampleAgency is the id of the sample agency fixture.
const ScenarioSampleAgency = "sample-agency"

var scenarios = []ScenarioDTO{
	{
		ID:          ScenarioSampleAgency,
		Name:        "Sample Agency",
		Description: "Two clients and five bookings across every status",
	},
}

var scenarioLoaders = map[string]func(context.Context, *lifecycle.Coordinator) error{
	ScenarioSampleAgency: lifecycle.LoadSample,
}

// ErrUnknownScenario is returned by LoadScenario for an unregistered id.
var ErrUnknownScenario = &agency.ValidationError{Field: "scenario_id", Message: "unknown scenario"}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.CurrentScenario()
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenarioHandler resets the agency and loads the requested scenario.
func (h *Handler) LoadScenarioHandler(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.LoadScenario(r.Context(), req.ScenarioID); err != nil {
		writeDomainError(w, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LoadScenario resets the agency and imports the named scenario.
func (h *Handler) LoadScenario(ctx context.Context, id string) error {
	load, ok := scenarioLoaders[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrUnknownScenario)
	}

	h.swap.Lock()
	defer h.swap.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	coord, err := h.resetLocked(ctx)
	if err != nil {
		return err
	}
	if err := load(ctx, coord); err != nil {
		return fmt.Errorf("load scenario %s: %w", id, err)
	}
	h.coord = coord
	h.currentScenario = id
	h.log.Info("scenario loaded", zap.String("scenario", id))
	return nil
}

// Reset wipes every client, booking and transaction.
func (h *Handler) Reset(ctx context.Context) error {
	h.swap.Lock()
	defer h.swap.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	coord, err := h.resetLocked(ctx)
	if err != nil {
		return err
	}
	h.coord = coord
	h.currentScenario = ""
	h.log.Info("agency reset")
	return nil
}

// CurrentScenario returns the loaded scenario id, empty when none.
func (h *Handler) CurrentScenario() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentScenario
}

func (h *Handler) resetLocked(ctx context.Context) (*lifecycle.Coordinator, error) {
	resetter, ok := h.store.(agency.Resetter)
	if !ok {
		return nil, errors.New("transaction store cannot be reset")
	}
	if err := resetter.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset transactions: %w", err)
	}
	return h.newCoordinator(), nil
}
