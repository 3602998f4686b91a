package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andy/docket/internal/domain"
	"github.com/andy/docket/internal/httpserver/deps"
	"github.com/andy/docket/internal/service"
)

const maxBodyBytes = 64 << 10

type matterRequest struct {
	MatterID string `json:"matter_id"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type submitResponse struct {
	Closed *domain.TimeEntry     `json:"closed"`
	Timer  service.TimerSnapshot `json:"timer"`
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrValidation, err)
	}
	return nil
}

func resolveMatter(ctx context.Context, d deps.Deps, r *http.Request) (domain.MatterRef, error) {
	var req matterRequest
	if err := decode(r, &req); err != nil {
		return domain.MatterRef{}, err
	}
	if strings.TrimSpace(req.MatterID) == "" {
		return domain.MatterRef{}, fmt.Errorf("%w: matter_id is required", domain.ErrValidation)
	}
	matter, err := d.Matters.GetByID(ctx, req.MatterID)
	if err != nil {
		return domain.MatterRef{}, err
	}
	return matter.Ref(), nil
}

// GetTimer returns the current snapshot. ?refresh=1 reloads from the store
// first.
func GetTimer(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("refresh") != "" {
			if err := d.Timer.Refresh(r.Context()); err != nil {
				writeError(w, d.Logger, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, d.Timer.Snapshot())
	}
}

func StartTimer(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := resolveMatter(r.Context(), d, r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := d.Timer.Start(r.Context(), ref); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, d.Timer.Snapshot())
	}
}

func SwitchTimer(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := resolveMatter(r.Context(), d, r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if err := d.Timer.QuickSwitch(r.Context(), ref); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, d.Timer.Snapshot())
	}
}

// action adapts an engine call without a body to a handler
func action(d deps.Deps, fn func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(r.Context()); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, d.Timer.Snapshot())
	}
}

func PauseTimer(d deps.Deps) http.HandlerFunc {
	return action(d, d.Timer.Pause)
}

func ResumeTimer(d deps.Deps) http.HandlerFunc {
	return action(d, d.Timer.Resume)
}

func StopTimer(d deps.Deps) http.HandlerFunc {
	return action(d, func(context.Context) error { return d.Timer.Stop() })
}

func CancelQuickAction(d deps.Deps) http.HandlerFunc {
	return action(d, func(context.Context) error {
		d.Timer.CancelQuickAction()
		return nil
	})
}

func SubmitQuickAction(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req notesRequest
		if err := decode(r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		closed, err := d.Timer.SubmitQuickAction(r.Context(), req.Notes)
		if err != nil && closed == nil {
			writeError(w, d.Logger, err)
			return
		}

		// closed but the next matter failed to start
		if err != nil {
			w.Header().Set("X-Docket-Warning", err.Error())
		}
		writeJSON(w, http.StatusOK, submitResponse{Closed: closed, Timer: d.Timer.Snapshot()})
	}
}
