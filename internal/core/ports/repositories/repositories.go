package repositories

// RepositoryProvider bundles all repository facades for dependency injection
// into the service container.
type RepositoryProvider struct {
	DeclarationRepo DeclarationRepositoryFacade
	QueueRepo       QueueRepositoryFacade
	MessageRepo     MessageRepositoryFacade
	AuditRepo       AuditRepositoryFacade
	UserRepo        UserRepositoryFacade
}
