package usecase

// IsControlMessage is exported for testing
var IsControlMessage = isControlMessage
