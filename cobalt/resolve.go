package cobalt

import (
	"encoding/json"
	"strings"

	"github.com/truemediaorg/cobaltbot/model"
)

type ResolveRequest struct {
	URL         string `json:"url"`
	IsAudioOnly bool   `json:"isAudioOnly"`
}

/*
Response is one of DirectResponse, PickerResponse or ErrorResponse, chosen by Status:

	redirect, success, stream: DirectResponse, URL is populated
	picker:                    PickerResponse, Picker holds the candidates
	anything else:             ErrorResponse, Text and/or ErrorDetail describe the failure
*/
type Response interface {
	Result(audioOnly bool) (model.ResolutionResult, error)
}

type DirectResponse struct {
	Status   Status `json:"status"`
	URL      string `json:"url"`
	Type     string `json:"type,omitempty"`
	MimeType string `json:"mimetype,omitempty"`
	Filename string `json:"filename,omitempty"`
}

func (r DirectResponse) Result(audioOnly bool) (model.ResolutionResult, error) {
	if r.URL == "" {
		return model.ResolutionResult{}, malformedError("resolution API returned no url", nil)
	}
	kind := model.DefaultKind(audioOnly)
	if r.hasImageEvidence() {
		kind = model.KindImage
	}
	return model.ResolutionResult{DirectURL: r.URL, Kind: kind}, nil
}

// Image evidence wins over the audio-only flag. The extension check is on the raw
// URL, so a query string hides it.
func (r DirectResponse) hasImageEvidence() bool {
	return r.Type == "image" ||
		strings.HasSuffix(r.URL, ".jpg") ||
		strings.HasSuffix(r.URL, ".png") ||
		strings.Contains(r.MimeType, "image")
}

type PickerItem struct {
	Type  string `json:"type,omitempty"`
	URL   string `json:"url"`
	Thumb string `json:"thumb,omitempty"`
}

type PickerResponse struct {
	Status Status       `json:"status"`
	Picker []PickerItem `json:"picker"`
	Audio  string       `json:"audio,omitempty"`
}

// Always takes the first item; picker items are not checked for images.
func (r PickerResponse) Result(audioOnly bool) (model.ResolutionResult, error) {
	if len(r.Picker) == 0 {
		return model.ResolutionResult{}, malformedError("resolution API returned an empty picker", nil)
	}
	first := r.Picker[0]
	if first.URL == "" {
		return model.ResolutionResult{}, malformedError("picker item is missing url", nil)
	}
	return model.ResolutionResult{DirectURL: first.URL, Kind: model.DefaultKind(audioOnly)}, nil
}

type ErrorResponse struct {
	Status Status `json:"status"`
	Text   string `json:"text,omitempty"`
	// Either a plain string or an object like {"code": "error.api.link.invalid"}.
	ErrorDetail json.RawMessage `json:"error,omitempty"`
}

func (r ErrorResponse) Result(bool) (model.ResolutionResult, error) {
	return model.ResolutionResult{}, rejectionError(r.Message())
}

func (r ErrorResponse) Message() string {
	if r.Text != "" {
		return r.Text
	}
	if len(r.ErrorDetail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(r.ErrorDetail, &text); err == nil {
		return text
	}
	var detail struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(r.ErrorDetail, &detail); err == nil {
		return detail.Code
	}
	return ""
}

type decodeFunc func(body []byte) (Response, error)

var decoders = map[Status]decodeFunc{
	StatusRedirect: decodeAs[DirectResponse],
	StatusSuccess:  decodeAs[DirectResponse],
	StatusStream:   decodeAs[DirectResponse],
	StatusPicker:   decodeAs[PickerResponse],
}

func decodeAs[T Response](body []byte) (Response, error) {
	var r T
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// DecodeResponse picks the response variant from the status tag. Unknown
// statuses decode as errors.
func DecodeResponse(body []byte) (Response, error) {
	var envelope struct {
		Status Status `json:"status"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, malformedError("resolution API returned an unreadable response", err)
	}
	decode, ok := decoders[envelope.Status]
	if !ok {
		decode = decodeAs[ErrorResponse]
	}
	resp, err := decode(body)
	if err != nil {
		return nil, malformedError("resolution API returned an unreadable response", err)
	}
	return resp, nil
}
