package internal

import (
	"os"
	"path/filepath"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
)

func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".obridge", "config.json")
}

func GetVersion() string { return version }

func GetGitCommit() string { return gitCommit }

func GetBuildTime() string { return buildTime }
