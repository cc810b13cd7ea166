package schema

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadFile reads additional provider schemas from a YAML file and
// registers them. The file has a top-level "schemas" key:
//
//	schemas:
//	  - name: circleci
//	    required: [id, status, created_at]
//	    enums:
//	      status: [success, failed, running]
//	    formats:
//	      id: "^[0-9a-f-]+$"
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "schema: read %s", path)
	}

	var wrapper struct {
		Schemas []*Schema `yaml:"schemas"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return eris.Wrapf(err, "schema: parse %s", path)
	}

	for _, s := range wrapper.Schemas {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}
