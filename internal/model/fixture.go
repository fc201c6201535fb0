package model

// Fixture returns the sequence a fresh drawer starts with when nothing has
// been stored yet.
func Fixture() []Item {
	return []Item{
		{
			ID:           "1600000000000",
			Name:         "Apple",
			Note:         "Green ones from the market",
			Amount:       6,
			Label:        "Fruit",
			DateAcquired: "2020-09-13T12:26:40.000Z",
		},
		{
			ID:           "1600000000001",
			Name:         "Banana",
			Amount:       3,
			Label:        "Fruit",
			DateAcquired: "2020-09-13T12:26:40.001Z",
		},
		{
			ID:           "1600000000002",
			Name:         "AA batteries",
			Note:         "Rechargeable",
			Amount:       8,
			Label:        "Electronics",
			DateAcquired: "2020-09-13T12:26:40.002Z",
		},
		{
			ID:           "1600000000003",
			Name:         "Winter scarf",
			Amount:       1,
			Label:        LabelNotLabeled,
			DateAcquired: "2020-09-13T12:26:40.003Z",
		},
		{
			ID:           "1600000000004",
			Name:         "Old charger",
			Note:         "Micro USB",
			Amount:       1,
			Label:        LabelToBeRemoved,
			DateAcquired: "2020-09-13T12:26:40.004Z",
			DateLastUsed: StringPtr("2021-01-01T00:00:00.000Z"),
		},
	}
}
