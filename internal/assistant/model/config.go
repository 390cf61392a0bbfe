package model

// ================ Config ================

type EngineConfig struct {
	RatePerMinute   int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`
	HistoryMax      int    `envconfig:"SESSION_HISTORY_MAX" default:"20"`
	RankCeiling     int    `envconfig:"RANK_CEILING" default:"200000"`
	SessionIdleTTL  string `envconfig:"SESSION_IDLE_TTL" default:"30m"`
	TranscriptTTL   string `envconfig:"TRANSCRIPT_TTL" default:"24h"`
	RetrieverTopK   int    `envconfig:"RETRIEVER_TOP_K" default:"5"`
	MaxMessageChars int    `envconfig:"MAX_MESSAGE_CHARS" default:"1000"`
}

type CollegeConfig struct {
	Name           string `envconfig:"COLLEGE_NAME" default:"VNR Vignana Jyothi Institute of Engineering and Technology"`
	ShortName      string `envconfig:"COLLEGE_SHORT_NAME" default:"VNRVJIET"`
	AdmissionEmail string `envconfig:"ADMISSION_EMAIL" default:"admissions@vnrvjiet.ac.in"`
	AdmissionPhone string `envconfig:"ADMISSION_PHONE" default:"+91-40-2304 2758"`
}

type AnswerModelConfig struct {
	Model       string  `envconfig:"ANSWER_MODEL" default:"gemini-2.5-flash"`
	IntentModel string  `envconfig:"INTENT_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"ANSWER_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"ANSWER_TEMPERATURE" default:"0.3"`
}

type EmbeddingConfig struct {
	Model      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-004"`
	Dimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
}
