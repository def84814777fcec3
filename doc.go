// Package ginject is a dependency-injection container core in the style of
// Google Guice: explicit bindings, constructor/field/method injection, and a
// small set of composable scopes, built around a reflect-driven resolver
// rather than compile-time code generation.
//
// # Overview
//
// ginject separates configuration from runtime. A Binder accumulates
// bindings; Binder.Build seals them into a Container, which is the only
// thing application code resolves dependencies through afterward:
//
//	b := ginject.NewBinder()
//	b.Bind(NewLogger).Singleton()
//	b.Bind(NewUserService)
//
//	container, err := b.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer container.Close()
//
//	userService, err := ginject.GetInstance[*UserService](container)
//
// # Scopes
//
// Every binding has a scope policy: the default (ScopeNone) constructs a
// fresh value on every resolution; Singleton constructs once per container;
// a named scope (registered via Binder.RegisterScope) keys its instances by
// ProvisioningContext.ScopeID.
//
//	b.Bind(NewRequestCache).InScope("request")
//	b.RegisterScope("request", ginject.NewInstanceScope())
//
//	ctx := container.NewScope(requestID)
//
// Container.NewScope returns a context carrying the given ScopeID, but no
// Container method accepts a context: GetInstance, GetNamed, GetGroup,
// GetProvider and InjectMembers each start a fresh one with an empty
// ScopeID, and NewInstanceScope gives every such context a new random ID,
// so through those methods a request-scoped binding yields a new value on
// every call.
//
// # Constructor Injection
//
// A bound constructor's parameters are resolved and supplied automatically:
//
//	func NewUserService(db *Database, logger Logger) *UserService {
//	    return &UserService{db: db, logger: logger}
//	}
//
// # Parameter Objects (In)
//
// Constructors with many dependencies can take a single parameter object
// embedding In; each exported field is resolved as its own dependency:
//
//	type ServiceParams struct {
//	    ginject.In
//
//	    Database *sql.DB
//	    Logger   Logger         `optional:"true"`
//	    Cache    Cache          `name:"redis"`
//	    Handlers []http.Handler `group:"routes"`
//	}
//
//	func NewService(p ServiceParams) *Service { ... }
//
// # Result Objects (Out)
//
// A constructor can also return an Out struct to register several bindings
// from a single invocation:
//
//	type ServiceResult struct {
//	    ginject.Out
//
//	    UserService  *UserService
//	    AdminService *AdminService `name:"admin"`
//	}
//
//	func NewServices(db *sql.DB) ServiceResult { ... }
//
//	b.Bind(NewServices)
//
// # Field and Method Injection
//
// A struct field tagged `inject:"true"` is populated after construction;
// any exported method whose name starts with Inject is called with its
// parameters resolved the same way constructor parameters are:
//
//	type Handler struct {
//	    Logger Logger `inject:"true" optional:"true"`
//	}
//
//	func (h *Handler) InjectRouter(r *Router) { r.Register(h) }
//
// # Named Bindings and Groups
//
// Multiple bindings for the same type are disambiguated by name or grouped
// into a multi-value slice:
//
//	b.Bind(NewRedisCache).Named("redis")
//	b.Bind(NewMemoryCache).Named("memory")
//	cache, err := ginject.GetNamed[Cache](container, "redis")
//
//	b.Bind(NewUserHandler).Group("routes")
//	b.Bind(NewAdminHandler).Group("routes")
//	handlers, err := ginject.GetGroup[http.Handler](container, "routes")
//
// # Provider[T]
//
// A constructor parameter (or a caller of the package-level GetProvider) can ask for
// Provider[T] instead of T itself to defer construction until it actually
// calls the provider:
//
//	func NewLazyWorker(logs ginject.Provider[*Logger]) *Worker {
//	    return &Worker{logs: logs}
//	}
//
// # Circular Dependencies
//
// A cycle that closes through an interface-typed binding is broken with a
// deferred-reference proxy: the proxy is handed to the constructor that
// needs it immediately, and begins forwarding to the real instance once its
// own construction finishes. A cycle that closes through a concrete type
// cannot be broken this way and fails with CircularDependencyError.
//
// # Decorators
//
// Decorate wraps an existing binding's value with additional behaviour:
//
//	b.Bind(NewService)
//	b.Decorate(func(inner Service, logger Logger) Service {
//	    return &loggingService{inner: inner, logger: logger}
//	})
//
// # Modules
//
// Related bindings are grouped into a Module and installed together:
//
//	var DatabaseModule = ginject.ModuleFunc(func(b *ginject.Binder) {
//	    b.Bind(NewDatabaseConnection).Singleton()
//	    b.Bind(NewUserRepository)
//	})
//
//	b.Install(DatabaseModule)
//
// # Error Handling
//
// Configuration-time problems (duplicate bindings, invalid Bind or As
// arguments, decorator validation failures) are collected during Build and
// returned together as a single *BuildError, rather than failing on the
// first one found. Build does not check that dependencies can be resolved;
// a missing binding or dependency surfaces only when a resolution needs it
// (for an eager singleton, that is during Build). Runtime resolution
// failures (ResolutionError, MissingDependencyError,
// CircularDependencyError, ConstructorInvocationError, and the rest defined
// in errors.go) are returned synchronously from the call that triggered
// them.
//
// # Thread Safety
//
// A built Container is safe for concurrent use from multiple goroutines.
package ginject
