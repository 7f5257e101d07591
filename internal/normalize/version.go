package normalize

// EngineVersion identifies the decomposition algorithm revision.
// Persisted results record it so stored trees can be told apart after a
// behavior change.
const EngineVersion = "0.1.0"
