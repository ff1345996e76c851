package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/kurniadi/customs_declaration_app/internal/core/ports/repositories"
)

// NewRepositoryProvider wires all pgx-backed repositories.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		DeclarationRepo: newPgxDeclarationRepository(dbPool),
		QueueRepo:       newPgxQueueRepository(dbPool),
		MessageRepo:     newPgxMessageRepository(dbPool),
		AuditRepo:       newPgxAuditRepository(dbPool),
		UserRepo:        newPgxUserRepository(dbPool),
	}
}
