package services

import (
	"time"

	"github.com/kurniadi/customs_declaration_app/internal/adapters/gateway"
	portsrepo "github.com/kurniadi/customs_declaration_app/internal/core/ports/repositories"
	portssvc "github.com/kurniadi/customs_declaration_app/internal/core/ports/services"
	"github.com/kurniadi/customs_declaration_app/internal/platform/metrics"
)

// ContainerConfig carries the tunables the service layer needs.
type ContainerConfig struct {
	// GatewayTimeout bounds every portal call and doubles as the queue
	// claim stale window.
	GatewayTimeout time.Duration
	// QueueMaxAttempts is the transmission retry budget per queue item.
	QueueMaxAttempts int
}

// NewContainer wires all services with their repositories and adapters.
// The returned sync service also implements gateway.TraceRecorder; callers
// constructing the gateway client themselves can plug it in via
// SyncTraceRecorder.
func NewContainer(repos *portsrepo.RepositoryProvider, client gateway.Client, m *metrics.Metrics, cfg ContainerConfig) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Declaration: NewDeclarationService(repos.DeclarationRepo, repos.AuditRepo, m),
		Sync: NewSyncService(
			repos.DeclarationRepo,
			repos.QueueRepo,
			repos.MessageRepo,
			repos.AuditRepo,
			client,
			m,
			cfg.GatewayTimeout,
			cfg.QueueMaxAttempts,
		),
		Audit: NewAuditService(repos.AuditRepo),
		User:  NewUserService(repos.UserRepo),
	}
}

// SyncTraceRecorder exposes the sync service's diagnostics capture so the
// gateway client can be wired to it after construction.
func SyncTraceRecorder(container *portssvc.ServiceContainer) gateway.TraceRecorder {
	if s, ok := container.Sync.(*syncService); ok {
		return s
	}
	return nil
}
