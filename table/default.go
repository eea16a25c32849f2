// Package table holds the declarative MQ tables that drive resolution: the
// feature-tagged header, function, type and source lists, the capability table,
// feature requirements and the constant rules.
package table

import (
	"github.com/teranos/mqbuild/capability"
	"github.com/teranos/mqbuild/classify"
	"github.com/teranos/mqbuild/feature"
	"github.com/teranos/mqbuild/mqver"
	"github.com/teranos/mqbuild/probe"
)

// Tables is one complete set of resolution inputs.
type Tables struct {
	Headers      []feature.Tagged[string]
	Functions    []feature.Tagged[string]
	Types        []feature.Tagged[string]
	Sources      []feature.Tagged[string]
	Capabilities []capability.Capability
	Requirements []capability.Requirement
	Rules        []classify.Rule
	// Features lists the feature names the tables know about.
	Features []string
	// Origin is "builtin" or the path the tables were loaded from.
	Origin string
}

// Known reports whether name is a declared feature or a version feature.
func (t Tables) Known(name string) bool {
	if mqver.IsFeature(name) {
		return true
	}
	for _, f := range t.Features {
		if f == name {
			return true
		}
	}
	return false
}

var (
	mqai  = []string{"mqai"}
	pcf   = []string{"pcf"}
	exits = []string{"exits"}
)

// Default returns a fresh copy of the compiled-in MQ tables.
func Default() Tables {
	return Tables{
		Origin: "builtin",
		Headers: []feature.Tagged[string]{
			feature.Always("cmqc.h", "cmqxc.h", "cmqstrc.h"),
			feature.When(mqai, "cmqbc.h", "cmqcfc.h"),
			feature.When(pcf, "cmqec.h", "cmqcfc.h"),
		},
		Functions: []feature.Tagged[string]{
			feature.Always("MQ.+"),
			feature.When(mqai, "mq.+"),
		},
		Types: []feature.Tagged[string]{
			feature.Always(
				"MQMD", "MQMDE", "MQMD1", "MQMD2", "MQPD", "MQIMPO", "MQMHBO", "MQBO", "MQDMHO", "MQCMHO", "MQSRO", "MQSD", "MQGMO",
				"MQPMO", "MQOD", "MQCNO", "MQCD", "MQCSP", "MQSCO", "MQBNO", "MQAIR", "MQBMHO", "MQCBC", "MQCBD", "MQCHARV", "MQCIH",
				"MQCTLO", "MQDH", "MQDLH", "MQDMPO", "MQIIH", "MQOR", "MQRFH", "MQRFH2", "MQRMH", "MQRR", "MQSMPO", "MQSTS", "MQTM",
				"MQTMC2", "MQWIH", "MQXQH",
			),
			feature.When(pcf,
				"MQCFH", "MQCFBF", "MQCFBS", "MQCFGR", "MQCFIF", "MQCFIL", "MQCFIL64", "MQCFIN", "MQCFIN64", "MQCFSF", "MQCFSL",
				"MQCFST", "MQEPH", "MQZED", "MQZAC", "MQZAD", "MQZFP", "MQZIC",
			),
			feature.When(exits,
				"MQACH", "MQAXC", "MQAXP", "MQCXP", "MQDXP", "MQNXP", "MQPBC", "MQPSXP", "MQSBC", "MQWCR", "MQWDR", "MQWDR1",
				"MQWDR2", "MQWQR", "MQWQR1", "MQWQR2", "MQWQR3", "MQWQR4", "MQWXP", "MQWXP1", "MQWXP2", "MQWXP3", "MQWXP4", "MQXEPO",
				"MQIEP",
			),
		},
		Sources: []feature.Tagged[string]{
			feature.Always("c/defaults.c", "c/strings.c"),
			feature.When(exits, "c/exits.c"),
			feature.When(pcf, "c/pcf.c"),
		},
		Capabilities: []capability.Capability{
			{
				Name:        "mqbno",
				Description: "MQBNO balancing options and MQBNO_DEFAULT",
				Gate:        capability.MinVersion{Min: mqver.New(9, 3, 0, 0)},
			},
			{
				Name:        "mqwqr4",
				Description: "MQWQR4 cluster workload queue record",
				Gate:        capability.MinVersion{Min: mqver.New(9, 3, 1, 0)},
			},
			{
				Name:        "mqcsp_token",
				Description: "MQCSP authentication token fields",
				Gate: capability.Probe{Snippet: probe.Snippet{
					Name:   "mqcsp_token",
					Source: "#include <cmqc.h>\nvoid mqbuild_probe(PMQCSP csp) { csp->TokenPtr = 0; csp->TokenLength = 0; }\n",
				}},
			},
			{
				Name:        "mqcno_balance",
				Description: "MQCNO application balancing parameters",
				Gate: capability.Probe{Snippet: probe.Snippet{
					Name:   "mqcno_balance",
					Source: "#include <cmqc.h>\nvoid mqbuild_probe(PMQCNO cno) { cno->BalanceParmsPtr = 0; }\n",
				}},
			},
		},
		Rules: classify.DefaultRules(),
		Features: []string{
			"mqai", "pcf", "exits", "link_mqm", "mqi_helpers",
			"mqc_9_2_0_0", "mqc_9_2_1_0", "mqc_9_2_2_0", "mqc_9_2_3_0", "mqc_9_2_4_0", "mqc_9_2_5_0",
			"mqc_9_3_0_0", "mqc_9_3_1_0", "mqc_9_3_2_0", "mqc_9_3_3_0", "mqc_9_3_4_0", "mqc_9_3_5_0",
			"mqc_9_4_0_0", "mqc_9_4_1_0",
		},
	}
}
