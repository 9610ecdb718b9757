// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"fmt"
	"log/slog"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
	"github.com/nyawara2025/dubaibankcases/internal/chat"
	"github.com/nyawara2025/dubaibankcases/internal/config"
	"github.com/nyawara2025/dubaibankcases/internal/incident"
	"github.com/nyawara2025/dubaibankcases/internal/logging"
	"github.com/nyawara2025/dubaibankcases/internal/nav"
	"github.com/nyawara2025/dubaibankcases/internal/session"
	"github.com/nyawara2025/dubaibankcases/internal/storage"
)

// Runtime is a fully wired Shell plus the resources it owns.
type Runtime struct {
	*Shell
	Config config.Config
	Client *backend.Client
	KV     storage.KV
}

// Open builds a Runtime from configuration: the session store backend
// named by cfg.Session.Store, a rate-limited backend client and the four
// dashboard components.
func Open(cfg *config.Config, log *slog.Logger) (*Runtime, error) {
	log = logging.OrDiscard(log)

	path, err := cfg.SessionPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session path: %w", err)
	}
	kv, err := storage.Open(cfg.Session.Store, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	client := backend.NewFromConfig(cfg.Backend, log)
	return Assemble(*cfg, kv, client, log), nil
}

// Assemble wires a Runtime around an existing store and client.
func Assemble(cfg config.Config, kv storage.KV, client *backend.Client, log *slog.Logger) *Runtime {
	store := session.NewStore(kv, client, log)
	repo := incident.NewRepository(client, log)
	cs := chat.NewSession(client, IdentityFrom(store), log)
	return &Runtime{
		Shell:  New(store, repo, cs, nav.New(), log),
		Config: cfg,
		Client: client,
		KV:     kv,
	}
}

// Close releases the session store.
func (r *Runtime) Close() error {
	return r.KV.Close()
}
