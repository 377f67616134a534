package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"pulmoscan/util/random"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("PULMO_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("PULMO_DEBUG") == "true"
}

// GetListen returns the address the web server binds to.
func GetListen() string {
	listen := os.Getenv("PULMO_LISTEN")
	if listen == "" {
		listen = ":5000"
	}
	return listen
}

// GetDataFolder holds the durable JSON stores (accounts, history).
func GetDataFolder() string {
	dataFolder := os.Getenv("PULMO_DATA_FOLDER")
	if dataFolder == "" {
		dataFolder = "data"
	}
	return dataFolder
}

func GetUsersFilePath() string {
	return filepath.Join(GetDataFolder(), "users.json")
}

func GetHistoryFilePath() string {
	return filepath.Join(GetDataFolder(), "analysis_history.json")
}

// GetUploadFolder receives the raw uploaded X-ray files.
func GetUploadFolder() string {
	uploadFolder := os.Getenv("PULMO_UPLOAD_FOLDER")
	if uploadFolder == "" {
		uploadFolder = "uploads"
	}
	return uploadFolder
}

// GetDisplayFolder receives the downscaled copies served to the browser.
func GetDisplayFolder() string {
	displayFolder := os.Getenv("PULMO_DISPLAY_FOLDER")
	if displayFolder == "" {
		displayFolder = "static"
	}
	return displayFolder
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("PULMO_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "log"
	}
	return logFolderPath
}

var fallbackSecret string

// GetSessionSecret signs the session cookie. Without PULMO_SESSION_SECRET a
// random secret is generated once per process, so sessions do not survive a
// restart.
func GetSessionSecret() string {
	secret := os.Getenv("PULMO_SESSION_SECRET")
	if secret != "" {
		return secret
	}
	if fallbackSecret == "" {
		fallbackSecret = random.Seq(32)
	}
	return fallbackSecret
}
