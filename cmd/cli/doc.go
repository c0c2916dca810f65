// Package cli builds the ghfork command: it loads layered configuration,
// creates the zap logger, selects the gh CLI or REST transport, and drives
// fork setup followed by optional issue replication.
package cli
