package services

// ServiceContainer holds instances of all application services. This is the
// main entry point for accessing service functionality and is used
// throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Declaration DeclarationSvcFacade
	Sync        SyncSvcFacade
	Audit       AuditSvcFacade
	User        UserSvcFacade
}
