package main

import (
	"fmt"
	"strings"

	"github.com/carbocation/genowindow"
	"github.com/carbocation/genowindow/config"
	"github.com/carbocation/genowindow/layout"
	"github.com/carbocation/genowindow/reduce"
)

// genotypeReductions need the genotype summary columns of a VCF or BGEN input.
var genotypeReductions = []string{"allele_frequency", "hwe"}

func reductionFor(cfg config.Config, genotypes bool) (reduce.Reduction, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Reduction))
	switch name {
	case "af", "allele_frequency", "hwe":
		if !genotypes {
			return nil, fmt.Errorf("reduction %q needs a -vcf or -bgen input", cfg.Reduction)
		}
	}

	switch name {
	case "af", "allele_frequency":
		return reduce.AlleleFrequency{AltCol: genowindow.ColAltCount, AlleleCol: genowindow.ColAlleleNumber}, nil
	case "hwe":
		return reduce.HWE{
			HomRefCol: genowindow.ColHomRef,
			HetCol:    genowindow.ColHet,
			HomAltCol: genowindow.ColHomAlt,
			Cutoff:    cfg.HWECutoff,
		}, nil
	}

	r, err := reduce.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w (genotype inputs also support: %s)", err, strings.Join(genotypeReductions, ", "))
	}
	return r, nil
}

func layoutNames() string {
	return layout.LayoutNames()
}
