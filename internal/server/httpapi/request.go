package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

var (
	errBodyTooLarge = errors.New("request body too large")
	errBadBody      = errors.New("malformed request body")
)

// params holds the request fields. Body values win over the query string.
// A JSON null is kept as an empty value so it can clear a field.
type params map[string]string

func (p params) get(key string) string {
	return p[key]
}

func (p params) lookup(key string) (*string, bool) {
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	return &v, true
}

// readParams collects fields from the query string and a JSON, urlencoded or
// multipart body of at most limit bytes. Outside GET only the action is read
// from the query, so credentials never travel in the URL.
func readParams(c *gin.Context, limit int64) (params, error) {
	p := params{}
	query := c.Request.URL.Query()
	if c.Request.Method == http.MethodGet {
		merge(p, query)
		return p, nil
	}
	if a := query.Get("action"); a != "" {
		p["action"] = a
	}

	if c.Request.Body == nil {
		return p, nil
	}
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	switch c.ContentType() {
	case gin.MIMEJSON:
		var body map[string]any
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, bodyError(err)
		}
		for k, v := range body {
			switch t := v.(type) {
			case string:
				p[k] = t
			case json.Number:
				p[k] = t.String()
			case bool:
				p[k] = strconv.FormatBool(t)
			case nil:
				p[k] = ""
			}
		}
	case gin.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(limit); err != nil {
			return nil, bodyError(err)
		}
		merge(p, c.Request.PostForm)
	default:
		if err := c.Request.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		merge(p, c.Request.PostForm)
	}
	return p, nil
}

func merge(p params, values url.Values) {
	for k, v := range values {
		if len(v) > 0 {
			p[k] = v[0]
		}
	}
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return errBadBody
}
