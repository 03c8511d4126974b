// Package repomanager hands out repositories bound to a database handle —
// either *sql.DB or a transaction — so services can run multi-repo flows
// inside one transactional scope.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/aleksvdm/gopherchat/internal/dbx"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/conversations"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/messages"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/modelconfigs"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/refreshtokens"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Conversations(db dbx.DBTX) conversations.Repository
	Messages(db dbx.DBTX) messages.Repository
	ModelConfigs(db dbx.DBTX) modelconfigs.Repository
}
