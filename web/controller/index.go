package controller

import (
	"errors"
	"net/http"

	"pulmoscan/config"
	"pulmoscan/logger"
	"pulmoscan/util/common"
	"pulmoscan/web/service"
	"pulmoscan/web/session"

	"github.com/gin-gonic/gin"
)

// LoginForm represents the login request fields.
type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// SignupForm represents the account creation request fields.
type SignupForm struct {
	Name            string `form:"name"`
	Username        string `form:"username"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
	Role            string `form:"role"`
}

// IndexController handles the public routes: landing page, signup, login
// and logout.
type IndexController struct {
	BaseController

	userService *service.UserService
}

// NewIndexController creates the controller and registers its routes.
func NewIndexController(g *gin.RouterGroup, userService *service.UserService) *IndexController {
	a := &IndexController{userService: userService}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/home", a.home)
	g.GET("/signup", a.signupPage)
	g.POST("/signup", a.signup)
	g.GET("/login", a.loginPage)
	g.POST("/login", a.login)
	g.GET("/logout", a.logout)
	g.GET("/api/status", a.status)
}

// status reports service health and version for monitoring checks.
func (a *IndexController) status(c *gin.Context) {
	jsonObj(c, gin.H{"name": config.GetName(), "version": config.GetVersion()}, nil)
}

// home renders the public landing page.
func (a *IndexController) home(c *gin.Context) {
	html(c, "home.html", "Medical X-Ray Analysis Platform", nil)
}

func (a *IndexController) signupPage(c *gin.Context) {
	html(c, "signup.html", "Sign Up", nil)
}

// signup creates an account and redirects to the login page on success.
// Validation failures are surfaced as inline flash messages on the form.
func (a *IndexController) signup(c *gin.Context) {
	var form SignupForm
	if err := c.ShouldBind(&form); err != nil {
		session.AddFlash(c, "error", "invalid form data")
		c.Redirect(http.StatusFound, "/signup")
		return
	}

	_, err := a.userService.Register(form.Username, form.Email, form.Name, form.Password, form.ConfirmPassword, form.Role)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			session.AddFlash(c, "error", validationMessage(err))
		} else {
			logger.Warning("signup failed:", err)
			session.AddFlash(c, "error", "could not create account, please try again")
		}
		c.Redirect(http.StatusFound, "/signup")
		return
	}

	session.AddFlash(c, "success", "Account created successfully! Please login.")
	c.Redirect(http.StatusFound, "/login")
}

func (a *IndexController) loginPage(c *gin.Context) {
	if session.IsLogin(c) {
		c.Redirect(http.StatusTemporaryRedirect, "/")
		return
	}
	html(c, "login.html", "Login", gin.H{"next": safeNext(c.Query("next"))})
}

// login verifies the credentials and (re)populates the session. The failure
// message is deliberately generic.
func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil || form.Username == "" || form.Password == "" {
		session.AddFlash(c, "error", "Please enter both username and password")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	account := a.userService.CheckUser(form.Username, form.Password)
	if account == nil {
		logger.Warningf("failed login for %q from %s", form.Username, getRemoteIp(c))
		session.AddFlash(c, "error", "Invalid username or password")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	err := session.SetLoginUser(c, session.User{
		UserID: account.Username,
		Name:   account.Name,
		Role:   account.Role,
	})
	if err != nil {
		logger.Warning("unable to save session:", err)
	}
	logger.Infof("%s logged in from %s", account.Username, getRemoteIp(c))

	if next := safeNext(c.Query("next")); next != "" {
		c.Redirect(http.StatusFound, next)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// logout clears the session unconditionally and redirects to the login page.
func (a *IndexController) logout(c *gin.Context) {
	if user := session.GetLoginUser(c); user != nil {
		logger.Infof("%s logged out", user.UserID)
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("unable to clear session:", err)
	}
	session.AddFlash(c, "success", "You have been logged out successfully")
	c.Redirect(http.StatusFound, "/login")
}

// validationMessage strips the sentinel prefix so only the field-level
// message reaches the form.
func validationMessage(err error) string {
	msg := err.Error()
	prefix := common.ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
