package constants

const (
	APIName = "STAGEPASS"

	DefaultConfigPath1 = "/etc/stagepass"
	DefaultConfigPath2 = "$HOME/.stagepass"
)
