package director

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ivlev/sprite2video/internal/system"
)

// GenerateScriptPath creates a timestamped script filename in dir
func GenerateScriptPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("scene_%s.yaml", timestamp))
}

// FindLatestScript finds the most recently modified script in dir
func FindLatestScript(dir string) (string, error) {
	return system.FindLatestFile(dir, ".yaml", ".yml")
}
