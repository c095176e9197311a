package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"mix-optimizer/internal/catalog"
	"mix-optimizer/internal/errors"
	"mix-optimizer/internal/format"
	"mix-optimizer/internal/mixer"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

// functionRequest is the body of a Function URL call. Mode selects which of
// the embedded requests is used.
type functionRequest struct {
	Mode string `json:"mode"`
	mixer.PathRequest
	Product  string `json:"product"`
	Depth    *int   `json:"depth"`
	GrowTent bool   `json:"grow_tent"`
	PGR      bool   `json:"pgr"`
	Strain   string `json:"strain"`
	Quality  int    `json:"quality"`

	Ingredients []string `json:"ingredients"`
}

type functionResult struct {
	Mode     string              `json:"mode"`
	TimeMs   int64               `json:"timeMs"`
	Path     *mixer.PathResult   `json:"path,omitempty"`
	Optimize *mixer.ProfitResult `json:"optimize,omitempty"`
	Mix      *mixer.MixResult    `json:"mix,omitempty"`
	Detail   string              `json:"detail"`
}

var defaultService = sync.OnceValues(func() (*mixer.Service, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	return mixer.NewService(cat), nil
})

// handler answers path, optimize and mix requests against the embedded catalog.
func handler(_ context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(http.StatusBadRequest, "invalid base64 body")
		}
		body = string(decoded)
	}

	var req functionRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return errResp(http.StatusBadRequest, "invalid JSON: "+err.Error())
	}

	svc, err := defaultService()
	if err != nil {
		return errResp(http.StatusInternalServerError, err.Error())
	}

	start := time.Now()
	resp := functionResult{Mode: req.Mode}
	switch req.Mode {
	case "path":
		res, err := svc.FindPath(req.PathRequest)
		if err != nil {
			return errFrom(err)
		}
		resp.Path, resp.Detail = res, format.Path(res)
	case "optimize":
		res, err := svc.Optimize(mixer.OptimizeRequest{
			Product:  req.Product,
			Depth:    req.Depth,
			GrowTent: req.GrowTent,
			PGR:      req.PGR,
			Strain:   req.Strain,
			Quality:  req.Quality,
			Initial:  req.Initial,
		})
		if err != nil {
			return errFrom(err)
		}
		resp.Optimize, resp.Detail = res, format.Profit(res)
	case "mix":
		res, err := svc.Mix(mixer.MixRequest{Ingredients: req.Ingredients, Initial: req.Initial})
		if err != nil {
			return errFrom(err)
		}
		resp.Mix, resp.Detail = res, format.Mix(res)
	case "":
		return errResp(http.StatusBadRequest, "missing mode")
	default:
		return errResp(http.StatusBadRequest, "unknown mode "+req.Mode)
	}
	resp.TimeMs = time.Since(start).Milliseconds()

	respJSON, _ := json.Marshal(resp)
	return events.LambdaFunctionURLResponse{StatusCode: http.StatusOK, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errFrom(err error) (events.LambdaFunctionURLResponse, error) {
	switch errors.CodeOf(err) {
	case errors.ErrCodeInvalidRequest:
		return errResp(http.StatusBadRequest, err.Error())
	case errors.ErrCodeNotFound:
		return errResp(http.StatusNotFound, err.Error())
	default:
		return errResp(http.StatusInternalServerError, err.Error())
	}
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
