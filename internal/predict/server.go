package predict

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

//go:embed templates/*.html
var templateFS embed.FS

// formPage is the data rendered by form.html.
type formPage struct {
	Input           Input
	Prediction      *Prediction
	Errors          []FieldError
	Statuses        []string
	PaymentStatuses []string
	Countries       []string
}

// NewRouter returns the HTTP handler serving the form, the JSON API, health
// and metrics.
func NewRouter(p *Predictor, log *slog.Logger) (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(logRequest(log), gin.Recovery())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "form.html", newFormPage(DefaultInput()))
	})

	r.POST("/predict", func(c *gin.Context) {
		var in Input
		if err := c.ShouldBind(&in); err != nil {
			page := newFormPage(in)
			page.Errors = []FieldError{{Field: "form", Rule: err.Error()}}
			c.HTML(http.StatusBadRequest, "form.html", page)
			return
		}
		page := newFormPage(in)
		pred, err := p.Predict(in)
		if err != nil {
			var verr *ValidationError
			if !errors.As(err, &verr) {
				log.Error("prediction failed", "error", err)
				c.HTML(http.StatusInternalServerError, "form.html", page)
				return
			}
			page.Errors = verr.Fields
			c.HTML(http.StatusUnprocessableEntity, "form.html", page)
			return
		}
		page.Prediction = &pred
		c.HTML(http.StatusOK, "form.html", page)
	})

	r.POST("/api/predict", func(c *gin.Context) {
		var in Input
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		pred, err := p.Predict(in)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verr.Fields})
				return
			}
			log.Error("prediction failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
			return
		}
		c.JSON(http.StatusOK, pred)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, nil
}

func newFormPage(in Input) formPage {
	return formPage{
		Input:           in,
		Statuses:        reservation.Statuses,
		PaymentStatuses: reservation.PaymentStatuses,
		Countries:       reservation.Countries,
	}
}

func logRequest(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Serve runs handler on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
