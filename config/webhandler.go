package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

// rejectedError marks a merged config that does not validate.
type rejectedError struct{ err error }

func (e rejectedError) Error() string { return e.err.Error() }
func (e rejectedError) Unwrap() error { return e.err }

// ConfigHandler serves the runtime part of cfile as JSON on GET and stores
// a posted runtime part back into cfile on POST. Storing the file is what
// makes a running instance pick up the change.
func ConfigHandler(cfile string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			serveRuntime(w, cfile)
		case http.MethodPost:
			storeRuntime(w, r, cfile)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func serveRuntime(w http.ResponseWriter, cfile string) {
	conf, err := ReadConfig(cfile)
	if err != nil {
		slog.Error("Config file unreadable", "file", cfile, "error", err)
		http.Error(w, "Failed to read configuration", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(conf.Runtime()); err != nil {
		slog.Warn("Writing runtime config failed", "error", err)
	}
}

func storeRuntime(w http.ResponseWriter, r *http.Request, cfile string) {
	defer r.Body.Close()

	var rc RuntimeConfig
	if err := json.NewDecoder(r.Body).Decode(&rc); err != nil {
		slog.Warn("Bad runtime config body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	data, err := mergedYAML(cfile, rc)
	var rejected rejectedError
	switch {
	case errors.As(err, &rejected):
		slog.Warn("Runtime config update rejected", "error", err)
		http.Error(w, fmt.Sprintf("Invalid configuration: %v", rejected), http.StatusBadRequest)
		return
	case err != nil:
		slog.Error("Runtime config update failed", "error", err)
		http.Error(w, "Failed to update configuration", http.StatusInternalServerError)
		return
	}

	if err := os.WriteFile(cfile, data, 0o644); err != nil {
		slog.Error("Config file not writable", "file", cfile, "error", err)
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}
	slog.Info("Runtime config stored", "file", cfile)
	fmt.Fprintln(w, "Configuration updated successfully.")
}

// mergedYAML returns cfile with its runtime part replaced by rc. Settings
// that need a restart are carried over unchanged. A merge that does not
// validate returns a rejectedError.
func mergedYAML(cfile string, rc RuntimeConfig) ([]byte, error) {
	conf, err := ReadConfig(cfile)
	if err != nil {
		return nil, err
	}
	conf.Merge(rc)
	if err := conf.Validate(); err != nil {
		return nil, rejectedError{err: err}
	}
	return yaml.Marshal(conf)
}
