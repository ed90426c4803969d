package greeting

// DefaultMessage is the text served by GET /greeting.
const DefaultMessage = "Hello World!"

// Greeting is the response payload of the greeting endpoint.
// The zero value has no message and is what decoders fill in.
type Greeting struct {
	Message string `json:"message" doc:"Greeting message" example:"Hello World!"`
}

// New returns a Greeting holding message.
func New(message string) Greeting {
	return Greeting{Message: message}
}
