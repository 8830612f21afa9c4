package domain

var Tables = []interface{}{
	// Registration
	&Product{},
	&ProductPlant{},
	&SequenceCounter{},
	// Reference
	&Manufacturer{},
	&Country{},
	&State{},
}
