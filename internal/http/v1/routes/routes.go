package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/greeting-service/internal/http/v1/greeting"
)

// Register wires all API routes into the provided API router.
func Register(api huma.API) {
	greeting.Register(api)
}

// AdvertiseCBOR lists application/cbor next to application/json for every
// request and response body in the OpenAPI document. It must be called
// before routes are registered.
func AdvertiseCBOR(api huma.API) {
	oapi := api.OpenAPI()
	oapi.OnAddOperation = append(oapi.OnAddOperation, func(_ *huma.OpenAPI, op *huma.Operation) {
		if op.RequestBody != nil && op.RequestBody.Content != nil {
			if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
				op.RequestBody.Content["application/cbor"] = jsonContent
			}
		}
		for _, resp := range op.Responses {
			if resp.Content == nil {
				continue
			}
			if jsonContent, ok := resp.Content["application/json"]; ok {
				resp.Content["application/cbor"] = jsonContent
			}
		}
	})
}
