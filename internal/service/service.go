package service

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/internal/repository"
	"gitlab.com/dirk.krummacker/contact-manager/pkg/envelope"
)

// Messages returned in failure and success envelopes.
const (
	msgNotFound        = "Contact not found"
	msgInvalidBody     = "Invalid request body"
	msgDeleted         = "Contact deleted successfully"
	msgFetchFailed     = "Failed to fetch contacts"
	msgFetchOneFailed  = "Failed to fetch contact"
	msgCreateFailed    = "Failed to create contact"
	msgUpdateFailed    = "Failed to update contact"
	msgDeleteFailed    = "Failed to delete contact"
	msgInternalFailure = "Internal server error"
)

// Config holds the settings of the HTTP router.
type Config struct {
	// RequestLogging enables one log line per request.
	RequestLogging bool
	// AllowedOrigins lists the browser origins allowed to call the API. "*" allows any origin.
	AllowedOrigins []string
	// TracingName is the server name reported on request spans. Empty disables tracing.
	TracingName string
}

// Service exposes the contact repository over HTTP.
type Service struct {
	repo repository.Repository
	log  *zap.SugaredLogger
}

// New returns a service that delegates to the given repository.
func New(repo repository.Repository, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, log: log}
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func (s *Service) SetupHttpRouter(cfg Config) *gin.Engine {
	router := gin.New()
	router.Use(requestID())
	if cfg.TracingName != "" {
		router.Use(otelgin.Middleware(cfg.TracingName))
	}
	if cfg.RequestLogging {
		router.Use(requestLogger(s.log))
	}
	router.Use(gin.CustomRecovery(s.recoverPanic))
	router.Use(allowOrigins(cfg.AllowedOrigins))

	router.GET("/", greet)
	router.GET("/healthz", s.checkHealth)
	router.GET("/contacts", s.findContacts)
	router.POST("/contacts", s.createContact)
	router.GET("/contacts/:id", s.findContactByID)
	router.PUT("/contacts/:id", s.updateContactByID)
	router.DELETE("/contacts/:id", s.deleteContactByID)
	return router
}

// greet answers the root path so that a browser pointed at the API sees that it is up.
func greet(c *gin.Context) {
	c.String(http.StatusOK, "Contacts API is running")
}

// checkHealth reports whether the store can be reached.
//
// Example REST API call:
//
//	> curl http://localhost:5000/healthz
func (s *Service) checkHealth(c *gin.Context) {
	if err := s.repo.Ping(c.Request.Context()); err != nil {
		s.log.Warnw("health", "request_id", c.GetString(requestIDKey), "error", err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// findContacts responds with the list of all contacts as JSON. The list is not wrapped in an
// envelope because existing consumers expect a bare array. The order of the list is unspecified.
//
// Example REST API call:
//
//	> curl http://localhost:5000/contacts
func (s *Service) findContacts(c *gin.Context) {
	contacts, err := s.repo.ListAll(c.Request.Context())
	if err != nil {
		s.abortWithError(c, "findContacts", err, msgFetchFailed)
		return
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// createContact stores the contact specified in the request's JSON. It responds with the full
// contact including the newly assigned id, or with the list of validation messages.
//
// Example REST API call:
//
//	> curl http://localhost:5000/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"firstName": "Ann", "lastName": "Lee", "email": "ann@example.com", "phoneNo": "5551234567", "company": "", "jobTitle": ""}'
func (s *Service) createContact(c *gin.Context) {
	var draft model.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, envelope.Failure(msgInvalidBody))
		return
	}
	contact, err := s.repo.Create(c.Request.Context(), draft)
	if err != nil {
		s.abortWithError(c, "createContact", err, msgCreateFailed)
		return
	}
	c.IndentedJSON(http.StatusCreated, envelope.Success(contact))
}

// findContactByID locates the contact whose id matches the id parameter of the request URL and
// returns it as a response.
//
// Example REST API call:
//
//	> curl http://localhost:5000/contacts/6650c4e2a1f0b5d0c8e4a123
func (s *Service) findContactByID(c *gin.Context) {
	contact, err := s.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortWithError(c, "findContactByID", err, msgFetchOneFailed)
		return
	}
	c.IndentedJSON(http.StatusOK, envelope.Success(contact))
}

// updateContactByID replaces all fields of the contact whose id matches the id parameter of the
// request URL with the values of the JSON, and responds with the new version of the contact. An
// id inside the JSON is ignored.
//
// Example REST API call:
//
//	> curl http://localhost:5000/contacts/6650c4e2a1f0b5d0c8e4a123 --request "PUT" --include --header "Content-Type: application/json" --data '{"firstName": "Ann", "lastName": "Lee", "email": "ann@example.org", "phoneNo": "5557654321", "company": "ACME", "jobTitle": "CTO"}'
func (s *Service) updateContactByID(c *gin.Context) {
	var patch model.Draft
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, envelope.Failure(msgInvalidBody))
		return
	}
	contact, err := s.repo.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.abortWithError(c, "updateContactByID", err, msgUpdateFailed)
		return
	}
	c.IndentedJSON(http.StatusOK, envelope.Success(contact))
}

// deleteContactByID deletes the contact whose id matches the id parameter of the request URL.
//
// Example REST API call:
//
//	> curl http://localhost:5000/contacts/6650c4e2a1f0b5d0c8e4a123 --request "DELETE"
func (s *Service) deleteContactByID(c *gin.Context) {
	if err := s.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.abortWithError(c, "deleteContactByID", err, msgDeleteFailed)
		return
	}
	c.IndentedJSON(http.StatusOK, envelope.SuccessMessage(msgDeleted))
}

// abortWithError maps a repository error to a status code and failure envelope. Failures that
// are neither validation nor lookup errors are logged and answered with the generic message, so
// that no store internals leak to the client.
func (s *Service) abortWithError(c *gin.Context, operation string, err error, generic string) {
	var validationErr *repository.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, envelope.Failure(validationErr.Messages))
	case errors.Is(err, repository.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, envelope.Failure(msgNotFound))
	default:
		s.log.Errorw(operation, "request_id", c.GetString(requestIDKey), "error", err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, envelope.Failure(generic))
	}
}

// recoverPanic turns a panic inside a handler into the generic failure envelope.
func (s *Service) recoverPanic(c *gin.Context, recovered any) {
	s.log.Errorw("panic", "request_id", c.GetString(requestIDKey), "path", c.Request.URL.Path, "recovered", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, envelope.Failure(msgInternalFailure))
}
