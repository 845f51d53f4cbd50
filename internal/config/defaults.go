package config

func getDefaultConfig() *Config {
	return &Config{
		LogLevel:         "INFO",
		LogFormat:        "tint",
		TimeSpan:         "demo",
		Pools:            []string{"500", "3000"},
		ChainDepth:       4,
		HorizonStep:      10,
		Workers:          8,
		CEXSpreadSeconds: 60,
		OutputDir:        "data/processed",
		Input: InputConfig{
			DEXPath:      "data/cleansed/uniswap.csv",
			MetadataPath: "data/cleansed/etherscan.csv",
			CEXPath:      "data/cleansed/binance.csv",
		},
		Storage: StorageConfig{
			Backend:   BackendMemory,
			PebbleDir: "data/interim",
		},
	}
}
