/*
Package config loads bus settings from YAML or JSON.

# Settings

A settings file may hold the keys at the top level or under "nextbus":

	nextbus:
	  emit_context: pooled      # inline | serial | pooled
	  workers: 8
	  queue_size: 10000
	  emit_workers: 2
	  slow_threshold: 5ms       # a bare number is milliseconds
	  metrics: true
	  tracing: false
	  fault_journal: faults.db  # "" off, "memory", or a SQLite path

Load reads and decodes a file in one step:

	s, err := config.Load("bus.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	b := nextbus.New(nextbus.WithSettings(s))

Decode rejects present values of the wrong type and out-of-range
values; missing keys keep their Default.

# Raw Access

Config wraps the decoded map with lenient typed accessors that return
a caller-supplied default on a missing key or type mismatch:

	cfg, _ := config.FromYAML(data)
	name := cfg.Section("app").String("name", "bus")
*/
package config
