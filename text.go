package main

// Section intros and fixed copy. Everything person-specific lives in the
// portfolio content file.
var (
	SkillsIntro = `A comprehensive toolkit for building scalable data solutions across modern cloud platforms`

	ExperienceIntro = `5+ years of experience building scalable data solutions across various industries`

	ProjectsIntro = `Showcasing real-world data engineering projects that demonstrate scalable solutions and measurable impact`

	EducationIntro = `Strong academic foundation in data science and engineering`

	ContactIntro = `Let's discuss opportunities, collaborations, or any questions you might have`

	ContactSuccess = `Thank you for reaching out. I'll get back to you as soon as possible.`

	ContactFailure = `Sorry, there was an error sending your message. Please try again later.`

	ContactGateNotice = `Please wait a moment while we verify you're human, then send again.`

	ContactRateLimited = `You've sent several messages in a short time. Please try again in a minute.`
)
