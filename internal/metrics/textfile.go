package metrics

import (
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// WriteTextfile writes the registry in the Prometheus text exposition format,
// for collection by node_exporter's textfile collector. The file is replaced
// atomically by the client library.
func WriteTextfile(path string, g prom.Gatherer) error {
	if err := prom.WriteToTextfile(path, g); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write metrics textfile").
			WithContext("path", path).
			Warning().
			Build()
	}
	return nil
}
