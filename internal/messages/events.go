package messages

const EventHandlerPanicFmt = "handler %d for %s panicked: %v"
