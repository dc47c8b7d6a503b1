package gate

const (
	ExitPass       = 0
	ExitGateFail   = 1
	ExitInputError = 2
)
