package config

const (
	TypeCascadeRepair = "tenant:cascade-repair"
)

var DefinedTasks = map[string]struct{}{
	TypeCascadeRepair: {},
}
