// Package factory provides a small generic registry used to instantiate modules
// from configuration. A module is described by a type string and a map of raw
// settings; the factory registered for the type decodes the settings into a
// typed struct and returns the implementation.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	_ = reg.Register("kafka", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c KafkaConfig
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return NewKafkaSink(c)
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "kafka", Conf: map[string]any{"topic": "bms.ticks"}})
package factory
