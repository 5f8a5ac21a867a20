package simulator

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/whatsappmarket/campaign-console/pkg/logger"
	validatorpkg "github.com/whatsappmarket/campaign-console/pkg/validator"
)

// Server is an in-memory stand-in for the hosted campaign service, covering
// the full endpoint surface the console talks to, including the awkward
// parts (plain-text status bodies before execution, "already exists"
// conflicts). It exists for local development and the end-to-end tests; it
// is not a backend.
type Server struct {
	echo  *echo.Echo
	store *store
}

func New() *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validatorpkg.New()
	e.Use(middleware.Recover())

	s := &Server{echo: e, store: newStore()}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	e := s.echo

	e.POST("/auth/register", s.handleRegister)

	e.POST("/numbers/create-list", s.handleCreateList)
	e.POST("/numbers/add", s.handleAddContact)
	e.GET("/numbers/lists", s.handleListLists)

	campaign := e.Group("/campaign")
	campaign.POST("/create", s.handleCreateCampaign)
	campaign.POST("/execute/:id", s.handleExecute)
	campaign.GET("/status/:id", s.handleStatus)
	campaign.GET("/list-pending", s.handleListPending)
	campaign.GET("/:id/next-number", s.handleNextNumber)
	campaign.POST("/process-number", s.handleProcessNumber)
	campaign.GET("/:id/review-next", s.handleReviewNext)
	campaign.POST("/update-review", s.handleUpdateReview)
	campaign.GET("/list-all", s.handleListAll)
	campaign.GET("/list/:username", s.handleListByUser)
}

// Handler exposes the echo mux, mainly so tests can mount it on httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(port string) error {
	logger.Infof("Campaign service simulator listening on :%s", port)
	return s.echo.Start(":" + port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
