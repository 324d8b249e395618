package objects

type ResponseScaleUp struct {
	// Workers maps every worker that became active to its host:port.
	Workers map[int]string `json:"workers"`
}

type ResponseUses struct {
	ID   int `json:"id"`
	Uses int `json:"uses"`
}
