package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
)

const maxSearchLen = 255

// CatalogStore reads the catalog.
type CatalogStore interface {
	ShowingMovies(ctx context.Context, now time.Time) ([]model.Movie, error)
	SearchShowingMovies(ctx context.Context, name string, now time.Time) ([]model.Movie, error)
	MovieByID(ctx context.Context, id uint64) (model.Movie, bool, error)
	BranchesShowing(ctx context.Context, movieID uint64, now time.Time) ([]model.Branch, error)
	RoomsScheduled(ctx context.Context, movieID, branchID uint64, startsAt time.Time) ([]model.Room, error)
}

// CatalogHandler serves the read-only movie, branch and room lookups that
// lead a client to a showtime.
type CatalogHandler struct {
	catalog CatalogStore
	log     *logger.Logger
	now     func() time.Time
}

func NewCatalogHandler(catalog CatalogStore, log *logger.Logger) *CatalogHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &CatalogHandler{catalog: catalog, log: log, now: time.Now}
}

// Showing handles GET /api/movies/showing. Unknown query parameters are
// ignored.
func (h *CatalogHandler) Showing(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	movies, err := h.catalog.ShowingMovies(ctx, h.now())
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	return c.JSON(http.StatusOK, movies)
}

// Search handles GET /api/movies/showing/search?name=.
func (h *CatalogHandler) Search(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return respond(c, h.log, errBadQuery.Msg("name is required"))
	}
	if utf8.RuneCountInString(name) > maxSearchLen {
		return respond(c, h.log, errBadQuery.Msg("name must be at most 255 characters"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	movies, err := h.catalog.SearchShowingMovies(ctx, name, h.now())
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	return c.JSON(http.StatusOK, movies)
}

// Details handles GET /api/movies/details?movieId=.
func (h *CatalogHandler) Details(c echo.Context) error {
	id, err := queryID(c, "movieId")
	if err != nil {
		return respond(c, h.log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	m, found, err := h.catalog.MovieByID(ctx, id)
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	if !found {
		return respond(c, h.log, errMovieNotFound)
	}
	return c.JSON(http.StatusOK, m)
}

// Branches handles GET /api/branches?movieId=. A movieId of 0 names no
// movie and yields an empty list.
func (h *CatalogHandler) Branches(c echo.Context) error {
	raw := c.QueryParam("movieId")
	movieID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return respond(c, h.log, errBadQuery.Msg("movieId must be a non-negative integer").Wrap(err))
	}
	if movieID == 0 {
		return c.JSON(http.StatusOK, []model.Branch{})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	branches, err := h.catalog.BranchesShowing(ctx, movieID, h.now())
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	return c.JSON(http.StatusOK, branches)
}

// Rooms handles GET /api/rooms?movieId=&branchId=&startDate=&startTime=.
// startDate is YYYY-MM-DD and startTime HH:MM, both UTC.
func (h *CatalogHandler) Rooms(c echo.Context) error {
	movieID, err := queryID(c, "movieId")
	if err != nil {
		return respond(c, h.log, err)
	}
	branchID, err := queryID(c, "branchId")
	if err != nil {
		return respond(c, h.log, err)
	}
	startsAt, err := time.ParseInLocation("2006-01-02 15:04",
		c.QueryParam("startDate")+" "+c.QueryParam("startTime"), time.UTC)
	if err != nil {
		return respond(c, h.log, errBadQuery.Msg("startDate must be YYYY-MM-DD and startTime HH:MM").Wrap(err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rooms, err := h.catalog.RoomsScheduled(ctx, movieID, branchID, startsAt)
	if err != nil {
		return respond(c, h.log, errInternal.Wrap(err))
	}
	return c.JSON(http.StatusOK, rooms)
}
