package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/sajili/core/course"
	"github.com/trezcool/sajili/core/student"
)

const seedSession = "2024/2025"

var seedStudents = []student.NewStudent{
	// ND1
	{MatricNumber: "CFJ/ND/COM/2024/001", FirstName: "Abubakar", LastName: "Muhammad", Email: "abubakar.muhammad@fcfj.edu.ng", Level: student.LevelND1, PhoneNumber: "+234 803 123 4567"},
	{MatricNumber: "CFJ/ND/COM/2024/002", FirstName: "Fatima", LastName: "Ibrahim", Email: "fatima.ibrahim@fcfj.edu.ng", Level: student.LevelND1, PhoneNumber: "+234 805 234 5678"},
	{MatricNumber: "CFJ/ND/COM/2024/003", FirstName: "Emmanuel", LastName: "Okafor", Email: "emmanuel.okafor@fcfj.edu.ng", Level: student.LevelND1, PhoneNumber: "+234 807 345 6789"},
	{MatricNumber: "CFJ/ND/COM/2024/004", FirstName: "Grace", LastName: "Adebayo", Email: "grace.adebayo@fcfj.edu.ng", Level: student.LevelND1, PhoneNumber: "+234 809 456 7890"},
	{MatricNumber: "CFJ/ND/COM/2024/005", FirstName: "Usman", LastName: "Aliyu", Email: "usman.aliyu@fcfj.edu.ng", Level: student.LevelND1, PhoneNumber: "+234 811 567 8901"},
	{MatricNumber: "CFJ/ND/COM/2024/006", FirstName: "Mary", LastName: "Johnson", Email: "mary.johnson@fcfj.edu.ng", Level: student.LevelND1, PhoneNumber: "+234 813 678 9012"},
	{MatricNumber: "CFJ/ND/COM/2024/007", FirstName: "Abdullahi", LastName: "Sani", Email: "abdullahi.sani@fcfj.edu.ng", Level: student.LevelND1, PhoneNumber: "+234 815 789 0123"},
	{MatricNumber: "CFJ/ND/COM/2024/008", FirstName: "Blessing", LastName: "Okoro", Email: "blessing.okoro@fcfj.edu.ng", Level: student.LevelND1, PhoneNumber: "+234 817 890 1234"},
	{MatricNumber: "CFJ/ND/COM/2024/009", FirstName: "Musa", LastName: "Garba", Email: "musa.garba@fcfj.edu.ng", Level: student.LevelND1, PhoneNumber: "+234 819 901 2345"},
	{MatricNumber: "CFJ/ND/COM/2024/010", FirstName: "Faith", LastName: "Eze", Email: "faith.eze@fcfj.edu.ng", Level: student.LevelND1, PhoneNumber: "+234 821 012 3456"},

	// ND2
	{MatricNumber: "CFJ/ND/COM/2023/001", FirstName: "Yusuf", LastName: "Bello", Email: "yusuf.bello@fcfj.edu.ng", Level: student.LevelND2, PhoneNumber: "+234 823 123 4567"},
	{MatricNumber: "CFJ/ND/COM/2023/002", FirstName: "Zainab", LastName: "Umar", Email: "zainab.umar@fcfj.edu.ng", Level: student.LevelND2, PhoneNumber: "+234 825 234 5678"},
	{MatricNumber: "CFJ/ND/COM/2023/003", FirstName: "David", LastName: "Okonkwo", Email: "david.okonkwo@fcfj.edu.ng", Level: student.LevelND2, PhoneNumber: "+234 827 345 6789"},
	{MatricNumber: "CFJ/ND/COM/2023/004", FirstName: "Esther", LastName: "Yakubu", Email: "esther.yakubu@fcfj.edu.ng", Level: student.LevelND2, PhoneNumber: "+234 829 456 7890"},
	{MatricNumber: "CFJ/ND/COM/2023/005", FirstName: "Ahmad", LastName: "Musa", Email: "ahmad.musa@fcfj.edu.ng", Level: student.LevelND2, PhoneNumber: "+234 831 567 8901"},
	{MatricNumber: "CFJ/ND/COM/2023/006", FirstName: "Joy", LastName: "Nwankwo", Email: "joy.nwankwo@fcfj.edu.ng", Level: student.LevelND2, PhoneNumber: "+234 833 678 9012"},
	{MatricNumber: "CFJ/ND/COM/2023/007", FirstName: "Ibrahim", LastName: "Lawal", Email: "ibrahim.lawal@fcfj.edu.ng", Level: student.LevelND2, PhoneNumber: "+234 835 789 0123"},
	{MatricNumber: "CFJ/ND/COM/2023/008", FirstName: "Patience", LastName: "Ogbonna", Email: "patience.ogbonna@fcfj.edu.ng", Level: student.LevelND2, PhoneNumber: "+234 837 890 1234"},

	// HND1
	{MatricNumber: "CFJ/HND/COM/2024/001", FirstName: "Salisu", LastName: "Abdullahi", Email: "salisu.abdullahi@fcfj.edu.ng", Level: student.LevelHND1, PhoneNumber: "+234 839 901 2345"},
	{MatricNumber: "CFJ/HND/COM/2024/002", FirstName: "Hauwa", LastName: "Yusuf", Email: "hauwa.yusuf@fcfj.edu.ng", Level: student.LevelHND1, PhoneNumber: "+234 841 012 3456"},
	{MatricNumber: "CFJ/HND/COM/2024/003", FirstName: "Peter", LastName: "Adamu", Email: "peter.adamu@fcfj.edu.ng", Level: student.LevelHND1, PhoneNumber: "+234 843 123 4567"},
	{MatricNumber: "CFJ/HND/COM/2024/004", FirstName: "Ruth", LastName: "Samuel", Email: "ruth.samuel@fcfj.edu.ng", Level: student.LevelHND1, PhoneNumber: "+234 845 234 5678"},
	{MatricNumber: "CFJ/HND/COM/2024/005", FirstName: "Nasir", LastName: "Ahmad", Email: "nasir.ahmad@fcfj.edu.ng", Level: student.LevelHND1, PhoneNumber: "+234 847 345 6789"},
	{MatricNumber: "CFJ/HND/COM/2024/006", FirstName: "Mercy", LastName: "Daniel", Email: "mercy.daniel@fcfj.edu.ng", Level: student.LevelHND1, PhoneNumber: "+234 849 456 7890"},

	// HND2
	{MatricNumber: "CFJ/HND/COM/2023/001", FirstName: "Aminu", LastName: "Hassan", Email: "aminu.hassan@fcfj.edu.ng", Level: student.LevelHND2, PhoneNumber: "+234 851 567 8901"},
	{MatricNumber: "CFJ/HND/COM/2023/002", FirstName: "Khadija", LastName: "Suleiman", Email: "khadija.suleiman@fcfj.edu.ng", Level: student.LevelHND2, PhoneNumber: "+234 853 678 9012"},
	{MatricNumber: "CFJ/HND/COM/2023/003", FirstName: "John", LastName: "Musa", Email: "john.musa@fcfj.edu.ng", Level: student.LevelHND2, PhoneNumber: "+234 855 789 0123"},
	{MatricNumber: "CFJ/HND/COM/2023/004", FirstName: "Sarah", LastName: "Ibrahim", Email: "sarah.ibrahim@fcfj.edu.ng", Level: student.LevelHND2, PhoneNumber: "+234 857 890 1234"},
}

var seedCourses = []course.NewCourse{
	// ND1
	{Code: "COM 101", Title: "Introduction to Computer Science", CreditUnit: 3, Lecturer: "Dr. Aisha Mahmud", Level: student.LevelND1, Semester: course.FirstSemester},
	{Code: "COM 102", Title: "Computer Programming I", CreditUnit: 4, Lecturer: "Mr. Emmanuel Okafor", Level: student.LevelND1, Semester: course.FirstSemester},
	{Code: "COM 103", Title: "Mathematics for Computer Science", CreditUnit: 3, Lecturer: "Dr. Fatima Aliyu", Level: student.LevelND1, Semester: course.FirstSemester},
	{Code: "COM 104", Title: "Digital Logic Design", CreditUnit: 3, Lecturer: "Eng. David Yakubu", Level: student.LevelND1, Semester: course.FirstSemester},
	{Code: "COM 111", Title: "Computer Programming II", CreditUnit: 4, Lecturer: "Mr. Emmanuel Okafor", Level: student.LevelND1, Semester: course.SecondSemester},
	{Code: "COM 112", Title: "Data Structures", CreditUnit: 3, Lecturer: "Dr. Grace Adebayo", Level: student.LevelND1, Semester: course.SecondSemester},

	// ND2
	{Code: "COM 201", Title: "Object Oriented Programming", CreditUnit: 4, Lecturer: "Dr. Yusuf Bello", Level: student.LevelND2, Semester: course.FirstSemester},
	{Code: "COM 202", Title: "Database Management Systems", CreditUnit: 3, Lecturer: "Mr. Ahmad Musa", Level: student.LevelND2, Semester: course.FirstSemester},
	{Code: "COM 203", Title: "Computer Networks", CreditUnit: 3, Lecturer: "Eng. Ibrahim Lawal", Level: student.LevelND2, Semester: course.FirstSemester},
	{Code: "COM 204", Title: "Web Development", CreditUnit: 3, Lecturer: "Ms. Zainab Umar", Level: student.LevelND2, Semester: course.FirstSemester},
	{Code: "COM 211", Title: "Software Engineering", CreditUnit: 3, Lecturer: "Dr. David Okonkwo", Level: student.LevelND2, Semester: course.SecondSemester},
	{Code: "COM 212", Title: "Mobile App Development", CreditUnit: 3, Lecturer: "Mr. Peter Adamu", Level: student.LevelND2, Semester: course.SecondSemester},

	// HND1
	{Code: "COM 301", Title: "Advanced Programming", CreditUnit: 4, Lecturer: "Dr. Salisu Abdullahi", Level: student.LevelHND1, Semester: course.FirstSemester},
	{Code: "COM 302", Title: "System Analysis and Design", CreditUnit: 3, Lecturer: "Dr. Hauwa Yusuf", Level: student.LevelHND1, Semester: course.FirstSemester},
	{Code: "COM 303", Title: "Computer Graphics", CreditUnit: 3, Lecturer: "Mr. Nasir Ahmad", Level: student.LevelHND1, Semester: course.FirstSemester},
	{Code: "COM 311", Title: "Artificial Intelligence", CreditUnit: 3, Lecturer: "Dr. Ruth Samuel", Level: student.LevelHND1, Semester: course.SecondSemester},

	// HND2
	{Code: "COM 401", Title: "Project Management", CreditUnit: 3, Lecturer: "Dr. Aminu Hassan", Level: student.LevelHND2, Semester: course.FirstSemester},
	{Code: "COM 402", Title: "Cybersecurity", CreditUnit: 3, Lecturer: "Eng. Khadija Suleiman", Level: student.LevelHND2, Semester: course.FirstSemester},
	{Code: "COM 411", Title: "Final Year Project", CreditUnit: 6, Lecturer: "Dr. John Musa", Level: student.LevelHND2, Semester: course.SecondSemester},
}

func (cli *commandLine) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the default students and courses",
		Long:  "Load the default students and courses of the Computer Science department. Existing ones are left untouched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stds, crss, err := cli.seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d students and %d courses\n", stds, crss)
			return nil
		},
	}
}

// seed creates the default students and courses missing from the store and returns how many were added.
func (cli *commandLine) seed(ctx context.Context) (int, int, error) {
	var stdCount, crsCount int
	for _, ns := range seedStudents {
		if err := ns.Validate(cli.validate, cli.stdSvc); err != nil {
			if errors.Is(err, student.ErrMatricExists) {
				continue
			}
			return stdCount, crsCount, errors.Wrapf(err, "validating student %s", ns.MatricNumber)
		}
		if _, err := cli.stdSvc.Create(ctx, ns); err != nil {
			return stdCount, crsCount, errors.Wrapf(err, "creating student %s", ns.MatricNumber)
		}
		stdCount++
	}

	for _, nc := range seedCourses {
		nc.Department = student.DefaultDepartment
		nc.Session = seedSession
		if err := nc.Validate(cli.validate, cli.crsSvc); err != nil {
			if errors.Is(err, course.ErrCodeExists) {
				continue
			}
			return stdCount, crsCount, errors.Wrapf(err, "validating course %s", nc.Code)
		}
		if _, err := cli.crsSvc.Create(ctx, nc); err != nil {
			return stdCount, crsCount, errors.Wrapf(err, "creating course %s", nc.Code)
		}
		crsCount++
	}

	cli.logger.Info(fmt.Sprintf("seeded %d students and %d courses", stdCount, crsCount))
	return stdCount, crsCount, nil
}
