package gov

import (
	"encoding/json"
)

// Config is the engine-wide governance configuration. Target is handed to
// the registry on balance-at-height queries.
type Config struct {
	Threshold Threshold
	Target    string
}

func (c *Config) Validate() error {
	if c.Threshold == nil {
		return ErrUnknownThreshold
	}
	return c.Threshold.Validate()
}

type configSt struct {
	Threshold json.RawMessage `json:"threshold"`
	Target    string          `json:"target"`
}

func (c *Config) MarshalJSON() ([]byte, error) {
	th, err := MarshalThreshold(c.Threshold)
	if err != nil {
		return nil, err
	}
	return json.Marshal(configSt{Threshold: th, Target: c.Target})
}

func (c *Config) UnmarshalJSON(bz []byte) (err error) {
	var o configSt
	if err = json.Unmarshal(bz, &o); err != nil {
		return
	}
	th, err := UnmarshalThreshold(o.Threshold)
	if err != nil {
		return
	}
	c.Threshold = th
	c.Target = o.Target
	return
}
