package roadmap

// Phase is one stage of a track's curriculum.
type Phase struct {
	Name     string   `json:"name"`
	Duration string   `json:"duration"`
	Steps    []string `json:"steps"`
}

var curricula = map[Track][]Phase{
	TrackWebDevelopment: {
		{Name: "Foundation", Duration: "2-3 months", Steps: []string{"HTML/CSS Basics", "JavaScript Fundamentals", "Responsive Design", "Git & Version Control"}},
		{Name: "Intermediate", Duration: "3-4 months", Steps: []string{"React Framework", "Node.js & Express", "Database Basics (SQL)", "API Development"}},
		{Name: "Advanced", Duration: "2-3 months", Steps: []string{"Full Stack Projects", "Testing & Deployment", "Performance Optimization", "State Management"}},
		{Name: "Job Preparation", Duration: "1-2 months", Steps: []string{"Portfolio Development", "Data Structures & Algorithms", "Interview Preparation", "Job Applications"}},
	},
	TrackDataScience: {
		{Name: "Foundation", Duration: "3-4 months", Steps: []string{"Python Programming", "Statistics & Probability", "Pandas & NumPy", "Data Visualization"}},
		{Name: "Intermediate", Duration: "4-5 months", Steps: []string{"Machine Learning Algorithms", "Scikit-learn", "SQL & Databases", "Data Cleaning & EDA"}},
		{Name: "Advanced", Duration: "3-4 months", Steps: []string{"Deep Learning Basics", "TensorFlow/PyTorch", "MLOps Fundamentals", "Model Deployment"}},
		{Name: "Job Preparation", Duration: "1-2 months", Steps: []string{"Kaggle Competitions", "Portfolio Projects", "Case Study Preparation", "Technical Interviews"}},
	},
	TrackAIML: {
		{Name: "Foundation", Duration: "3-4 months", Steps: []string{"Mathematics for ML", "Python Programming", "Statistics & Linear Algebra", "Data Preprocessing"}},
		{Name: "Intermediate", Duration: "4-6 months", Steps: []string{"Machine Learning", "Neural Networks", "TensorFlow/PyTorch", "Computer Vision Basics"}},
		{Name: "Advanced", Duration: "4-5 months", Steps: []string{"Deep Learning Architecture", "NLP & Transformers", "Reinforcement Learning", "Model Optimization"}},
		{Name: "Job Preparation", Duration: "2 months", Steps: []string{"Research Projects", "Paper Implementation", "Open Source Contributions", "Technical Interviews"}},
	},
}

// Curriculum returns a copy of the phases for track. Unknown tracks get the
// web development curriculum.
func Curriculum(track Track) []Phase {
	phases, ok := curricula[track]
	if !ok {
		phases = curricula[TrackWebDevelopment]
	}
	out := make([]Phase, len(phases))
	for i, p := range phases {
		out[i] = Phase{Name: p.Name, Duration: p.Duration, Steps: append([]string(nil), p.Steps...)}
	}
	return out
}

// Opportunity is a curated posting surfaced once the unlock gate opens.
type Opportunity struct {
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Link         string `json:"link"`
}

// Opportunities groups postings by category.
type Opportunities struct {
	Internships []Opportunity `json:"internships"`
	Hackathons  []Opportunity `json:"hackathons"`
	Jobs        []Opportunity `json:"jobs"`
}

const (
	linkedInJobs = "https://www.linkedin.com/jobs"
	devpost      = "https://devpost.com/hackathons"
	kaggle       = "https://www.kaggle.com/competitions"
)

var opportunities = map[Track]Opportunities{
	TrackWebDevelopment: {
		Internships: []Opportunity{
			{Title: "Frontend Developer Intern", Organization: "TechCorp", Link: linkedInJobs},
			{Title: "Full Stack Intern", Organization: "StartupXYZ", Link: linkedInJobs},
		},
		Hackathons: []Opportunity{
			{Title: "Web Innovation Challenge", Organization: "HackersUnite", Link: devpost},
			{Title: "React Developer Contest", Organization: "CodeFest", Link: devpost},
		},
		Jobs: []Opportunity{
			{Title: "Junior Frontend Engineer", Organization: "TechGiant", Link: linkedInJobs},
		},
	},
	TrackDataScience: {
		Internships: []Opportunity{
			{Title: "Data Analyst Intern", Organization: "DataCorp", Link: linkedInJobs},
			{Title: "ML Research Intern", Organization: "AI Labs", Link: linkedInJobs},
		},
		Hackathons: []Opportunity{
			{Title: "Data Science Challenge", Organization: "Kaggle", Link: kaggle},
			{Title: "AI Innovation Hack", Organization: "MLConf", Link: devpost},
		},
		Jobs: []Opportunity{
			{Title: "Junior Data Scientist", Organization: "Analytics Inc", Link: linkedInJobs},
		},
	},
	TrackAIML: {
		Internships: []Opportunity{
			{Title: "ML Research Intern", Organization: "AI Labs", Link: linkedInJobs},
			{Title: "Computer Vision Intern", Organization: "VisionWorks", Link: linkedInJobs},
		},
		Hackathons: []Opportunity{
			{Title: "AI Innovation Hack", Organization: "MLConf", Link: devpost},
			{Title: "Kaggle Featured Competition", Organization: "Kaggle", Link: kaggle},
		},
		Jobs: []Opportunity{
			{Title: "Junior Machine Learning Engineer", Organization: "DeepStack", Link: linkedInJobs},
		},
	},
}

// OpportunitiesFor returns the postings for track.
func OpportunitiesFor(track Track) Opportunities {
	o, ok := opportunities[track]
	if !ok {
		o = opportunities[TrackWebDevelopment]
	}
	return Opportunities{
		Internships: append([]Opportunity(nil), o.Internships...),
		Hackathons:  append([]Opportunity(nil), o.Hackathons...),
		Jobs:        append([]Opportunity(nil), o.Jobs...),
	}
}
