package pipeline

import "testing"

func TestIsRejection(t *testing.T) {
	f := NewRejectionFilter()

	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			name: "unfortunately phrase",
			text: "Unfortunately we will not be moving forward with your application",
			want: true,
		},
		{
			name: "other candidates",
			text: "We have decided to pursue other candidates at this time",
			want: true,
		},
		{
			name: "position filled",
			text: "The position has been filled",
			want: true,
		},
		{
			name: "case insensitive",
			text: "AFTER CAREFUL CONSIDERATION we regret to inform you",
			want: true,
		},
		{
			name: "wish you luck",
			text: "We wish you luck in your job search",
			want: true,
		},
		{
			name: "plain confirmation",
			text: "Thank you for applying to Acme! We received your application for Software Engineer.",
			want: false,
		},
		{
			name: "newsletter",
			text: "Weekly digest: 10 new jobs matching your profile",
			want: false,
		},
		{
			name: "substring does not match inside a word",
			text: "The injection molding position is confirmed",
			want: false,
		},
		{
			name: "empty",
			text: "",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IsRejection(tt.text); got != tt.want {
				t.Errorf("IsRejection(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
