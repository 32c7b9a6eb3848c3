package deps

// JavaRequirement describes the Java runtime that hosts the decoder.
func JavaRequirement(binary string) Requirement {
	return Requirement{
		Name:        "Java",
		Command:     binary,
		Description: "Runs the jPSXdec decoder",
	}
}
