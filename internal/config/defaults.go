package config

const (
	defaultResourceDir = "~/.local/share/psxinstall"
	defaultLogDir      = "~/.local/share/psxinstall/logs"
	defaultJavaBinary  = "java"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"

	dataDirName      = "data"
	gameDirName      = "DRIVER2"
	installDirName   = "install"
	toolJarName      = "jpsxdec.jar"
	manifestFileName = "github_files.txt"
	historyFileName  = "history.db"
)

// Default returns a Config populated with repository defaults. Derived paths
// stay empty until normalize fills them from ResourceDir.
func Default() Config {
	return Config{
		Paths: Paths{
			ResourceDir: defaultResourceDir,
			LogDir:      defaultLogDir,
		},
		Conversion: Conversion{
			Enabled: true,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
