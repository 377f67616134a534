package controller

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"pulmoscan/logger"
	"pulmoscan/storage"
	"pulmoscan/util/common"
	"pulmoscan/web/entity"
	"pulmoscan/web/service"
	"pulmoscan/web/session"

	"github.com/gin-gonic/gin"
)

// PortalController handles the session-gated routes: the upload dashboard,
// the history page and the generated display images.
type PortalController struct {
	BaseController

	analysisService *service.AnalysisService
	historyStore    *storage.HistoryStore
	displayDir      string
}

// NewPortalController creates the controller and registers its routes behind
// the login gate.
func NewPortalController(g *gin.RouterGroup, analysisService *service.AnalysisService, historyStore *storage.HistoryStore, displayDir string) *PortalController {
	a := &PortalController{
		analysisService: analysisService,
		historyStore:    historyStore,
		displayDir:      displayDir,
	}
	a.initRouter(g)
	return a
}

func (a *PortalController) initRouter(g *gin.RouterGroup) {
	gated := g.Group("/", a.checkLogin)
	gated.GET("/", a.dashboard)
	gated.POST("/", a.upload)
	gated.GET("/history", a.history)
	gated.GET("/display/:name", a.displayImage)
}

// dashboard renders the upload form.
func (a *PortalController) dashboard(c *gin.Context) {
	html(c, "dashboard.html", "Dashboard", nil)
}

// upload runs the analysis pipeline on the multipart `file` field and
// re-renders the dashboard with the result.
func (a *PortalController) upload(c *gin.Context) {
	user := session.GetLoginUser(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		session.AddFlash(c, "error", "Please choose a file to upload")
		c.Redirect(http.StatusFound, "/")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Warning("open uploaded file:", err)
		session.AddFlash(c, "error", "Error processing image. Please try again.")
		c.Redirect(http.StatusFound, "/")
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		logger.Warning("read uploaded file:", err)
		session.AddFlash(c, "error", "Error processing image. Please try again.")
		c.Redirect(http.StatusFound, "/")
		return
	}

	result, err := a.analysisService.Submit(fileBytes, fileHeader.Filename, user.Name, user.UserID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUnsupportedFileType):
			session.AddFlash(c, "error", "Invalid file type. Please upload a PNG, JPG, or JPEG image.")
		case errors.Is(err, common.ErrImageDecode):
			session.AddFlash(c, "error", "Error processing image. Please try again.")
		default:
			logger.Error("upload pipeline failed:", err)
			session.AddFlash(c, "error", "Error processing image. Please try again.")
		}
		c.Redirect(http.StatusFound, "/")
		return
	}

	html(c, "dashboard.html", "Dashboard", gin.H{
		"view": entity.DashboardView{
			Result:   result,
			Filename: service.DisplayName(result.Filename),
		},
	})
}

// history renders the role-filtered history list: doctors see every entry,
// patients only their own.
func (a *PortalController) history(c *gin.Context) {
	user := session.GetLoginUser(c)

	entries, err := a.historyStore.ForViewer(user.Role, user.UserID)
	if err != nil {
		logger.Warning("load history:", err)
		entries = []storage.HistoryEntry{}
	}
	html(c, "history.html", "Analysis History", gin.H{
		"view": entity.HistoryView{Entries: entries},
	})
}

// displayImage serves a generated thumbnail from the display folder.
func (a *PortalController) displayImage(c *gin.Context) {
	name := c.Param("name")
	if name != filepath.Base(name) {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	c.File(filepath.Join(a.displayDir, name))
}
