// interop.go — Copyable request template for workflow tools such as n8n.
package genai

// ImagePlaceholder stands in for the base64 capture in a Payload.
const ImagePlaceholder = "[BASE64_IMAGE_STRING]"

// Payload is an HTTP request description a workflow tool can replay.
type Payload struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    PayloadBody       `json:"body"`
}

// PayloadBody mirrors the generateContent request body.
type PayloadBody struct {
	Contents []contentBlock `json:"contents"`
}

// InteropPayload builds the request template for prompt. The API key and
// the image are left as placeholders for the user to fill in.
func InteropPayload(prompt string) Payload {
	return Payload{
		Method:  "POST",
		URL:     DefaultBaseURL + "/v1beta/models/" + DefaultModel + ":generateContent?key=YOUR_API_KEY",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body: PayloadBody{Contents: []contentBlock{{Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{MIMEType: "image/png", Data: ImagePlaceholder}},
		}}}},
	}
}
